package files

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/services/file"
	"gitlab.com/magneto-ui.net/internal/handlers"
	"gitlab.com/magneto-ui.net/internal/handlers/response"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

// multipart parts above this size are spooled to disk by net/http
const memoryLimit = 32 << 20

type FileHandler struct {
	fileService file.IFileService
	maxBytes    int64
	logger      primary.Logger
}

func NewFileHandler(fileService file.IFileService, maxBytes int64, logger primary.Logger) *FileHandler {
	return &FileHandler{fileService: fileService, maxBytes: maxBytes, logger: logger}
}

func (h *FileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/files/upload", h.Upload).Methods(http.MethodPost)
}

// Upload accepts a multipart form with a zip under "file" and the target test under "testId"
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.ResponseError(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		handlers.ResponseFromError(w, r, h.logger, fmt.Errorf("%w: malformed multipart body", errs.ErrValidation))
		return
	}
	defer r.MultipartForm.RemoveAll()

	testID := uuid.Nil
	if raw := r.FormValue("testId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			handlers.ResponseFromError(w, r, h.logger, fmt.Errorf("%w: testId must be a UUID", errs.ErrValidation))
			return
		}
		testID = parsed
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, errs.FileRequired)
		return
	}
	defer part.Close()

	stored, err := h.fileService.Upload(r.Context(), handlers.UserID(r), testID, header.Filename, part)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Trace uploaded", "testId", testID, "blobId", stored.ID, "size", stored.Length)
	response.WriteSuccess(w, http.StatusCreated, map[string]interface{}{"file": stored})
}
