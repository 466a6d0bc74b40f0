package tests

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/services/test"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/handlers"
	"gitlab.com/magneto-ui.net/internal/handlers/response"
)

type CreateTestRequest struct {
	Name   string `json:"name" validate:"required"`
	Oracle string `json:"oracle" validate:"required"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

// TestHandler handles test API requests
type TestHandler struct {
	testService test.ITestService
	logger      primary.Logger
}

func NewTestHandler(testService test.ITestService, logger primary.Logger) *TestHandler {
	return &TestHandler{testService: testService, logger: logger}
}

// RegisterRoutes expects router to be behind the JWT middleware
func (h *TestHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/apps/{appId}/tests", h.CreateTest).Methods(http.MethodPost)
	router.HandleFunc("/api/apps/{appId}/tests", h.ListTests).Methods(http.MethodGet)
	router.HandleFunc("/api/tests/{testId}/notes", h.UpdateNotes).Methods(http.MethodPatch)
	router.HandleFunc("/api/tests/{testId}", h.DeleteTest).Methods(http.MethodDelete)
	router.HandleFunc("/api/tests/{testId}/result", h.DownloadResult).Methods(http.MethodGet)
	router.HandleFunc("/api/tests/{testId}/input", h.DownloadInput).Methods(http.MethodGet)
}

func (h *TestHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	appID, err := handlers.PathUUID(r, "appId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	var req CreateTestRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	created, err := h.testService.Create(r.Context(), handlers.UserID(r), appID, test.CreateTestRequest{
		Name:   req.Name,
		Oracle: req.Oracle,
	})
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusCreated, map[string]interface{}{"test": created})
}

func (h *TestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	appID, err := handlers.PathUUID(r, "appId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	list, err := h.testService.ListByApp(r.Context(), handlers.UserID(r), appID)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"tests": list})
}

func (h *TestHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	testID, err := handlers.PathUUID(r, "testId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	var req NotesRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	updated, err := h.testService.UpdateNotes(r.Context(), handlers.UserID(r), testID, req.Notes)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"test": updated})
}

func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	testID, err := handlers.PathUUID(r, "testId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	if err := h.testService.Delete(r.Context(), handlers.UserID(r), testID); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"message": "test deleted"})
}

func (h *TestHandler) DownloadResult(w http.ResponseWriter, r *http.Request) {
	testID, err := handlers.PathUUID(r, "testId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	info, body, err := h.testService.DownloadResult(r.Context(), handlers.UserID(r), testID)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	h.stream(w, info, body, "application/pdf")
}

func (h *TestHandler) DownloadInput(w http.ResponseWriter, r *http.Request) {
	testID, err := handlers.PathUUID(r, "testId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	info, body, err := h.testService.DownloadInput(r.Context(), handlers.UserID(r), testID)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	h.stream(w, info, body, "application/zip")
}

func (h *TestHandler) stream(w http.ResponseWriter, info *domain.BlobInfo, body io.ReadCloser, contentType string) {
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Filename}))
	if info.Length > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Length, 10))
	}
	w.WriteHeader(http.StatusOK)

	// headers are gone at this point; a failed copy can only be logged
	if n, err := io.Copy(w, body); err != nil {
		h.logger.Error("Failed to stream blob", "blobId", info.ID, "written", n, "error", err)
	} else {
		h.logger.Debug("Streamed blob", "blobId", info.ID, "size", n)
	}
}
