package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/services/user"
	"gitlab.com/magneto-ui.net/internal/handlers"
	"gitlab.com/magneto-ui.net/internal/handlers/response"
)

type UserHandler struct {
	userService user.IUserService
	logger      primary.Logger
}

func NewUserHandler(userService user.IUserService, logger primary.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/users/me", h.Me).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me", h.DeleteMe).Methods(http.MethodDelete)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.Get(r.Context(), handlers.UserID(r))
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user": u})
}

// DeleteMe removes the caller's account and everything it owns
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r)
	if err := h.userService.Delete(r.Context(), userID); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Account deleted", "userId", userID)
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"message": "account deleted"})
}
