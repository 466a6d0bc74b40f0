package apps

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/services/app"
	"gitlab.com/magneto-ui.net/internal/handlers"
	"gitlab.com/magneto-ui.net/internal/handlers/response"
)

type CreateAppRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

type DescriptionRequest struct {
	Description string `json:"description" validate:"required"`
}

// AppHandler handles app API requests
type AppHandler struct {
	appService app.IAppService
	logger     primary.Logger
}

func NewAppHandler(appService app.IAppService, logger primary.Logger) *AppHandler {
	return &AppHandler{appService: appService, logger: logger}
}

// RegisterRoutes expects router to be behind the JWT middleware
func (h *AppHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/apps", h.CreateApp).Methods(http.MethodPost)
	router.HandleFunc("/api/apps", h.ListApps).Methods(http.MethodGet)
	router.HandleFunc("/api/apps/{appId}/name", h.Rename).Methods(http.MethodPatch)
	router.HandleFunc("/api/apps/{appId}/description", h.UpdateDescription).Methods(http.MethodPatch)
	router.HandleFunc("/api/apps/{appId}", h.DeleteApp).Methods(http.MethodDelete)
}

func (h *AppHandler) CreateApp(w http.ResponseWriter, r *http.Request) {
	var req CreateAppRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	created, err := h.appService.Create(r.Context(), handlers.UserID(r), req.Name, req.Description)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusCreated, map[string]interface{}{"app": created})
}

func (h *AppHandler) ListApps(w http.ResponseWriter, r *http.Request) {
	list, err := h.appService.List(r.Context(), handlers.UserID(r))
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"apps": list})
}

func (h *AppHandler) Rename(w http.ResponseWriter, r *http.Request) {
	appID, err := handlers.PathUUID(r, "appId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	var req RenameRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	updated, err := h.appService.Rename(r.Context(), handlers.UserID(r), appID, req.Name)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"app": updated})
}

func (h *AppHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	appID, err := handlers.PathUUID(r, "appId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	var req DescriptionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	updated, err := h.appService.UpdateDescription(r.Context(), handlers.UserID(r), appID, req.Description)
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"app": updated})
}

func (h *AppHandler) DeleteApp(w http.ResponseWriter, r *http.Request) {
	appID, err := handlers.PathUUID(r, "appId")
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	if err := h.appService.Delete(r.Context(), handlers.UserID(r), appID); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"message": "app deleted"})
}
