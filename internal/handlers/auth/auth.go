package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/services/auth"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/handlers"
	"gitlab.com/magneto-ui.net/internal/handlers/response"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	stateCookie       = "oauthstate"
)

type ServiceDependencies struct {
	GGAuthService    auth.IAuthService
	LocalAuthService auth.ILocalAuthService
	GGAuthConfig     *config.GGAuthConfig
	Logger           primary.Logger
}

// GoogleUser struct to decode Google API response
type GoogleUser struct {
	ID         string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	// EmailVerified is false when Google has not confirmed the address
	EmailVerified bool `json:"email_verified"`
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Handler struct {
	providerHandler map[domain.Provider]auth.IAuthService
	local           auth.ILocalAuthService
	oauthConfig     *oauth2.Config
	userInfoURL     string
	logger          primary.Logger
}

func NewHandler() *Handler {
	return &Handler{
		providerHandler: make(map[domain.Provider]auth.IAuthService),
		userInfoURL:     googleUserInfoURL,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router, svcDep *ServiceDependencies) {
	h.providerHandler[domain.ProviderGoogle] = svcDep.GGAuthService
	h.providerHandler[domain.ProviderLocal] = svcDep.LocalAuthService
	h.local = svcDep.LocalAuthService
	h.logger = svcDep.Logger
	if svcDep.GGAuthConfig != nil && svcDep.GGAuthConfig.Enabled() {
		h.oauthConfig = &oauth2.Config{
			ClientID:     svcDep.GGAuthConfig.ClientID,
			ClientSecret: svcDep.GGAuthConfig.ClientSecret,
			RedirectURL:  svcDep.GGAuthConfig.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}
	}

	api := router.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/verify-email", h.VerifyEmail).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", h.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/reset-password", h.ResetPassword).Methods(http.MethodPost)

	router.HandleFunc("/auth/google", h.GoogleLoginHandler).Methods(http.MethodGet)
	router.HandleFunc("/auth/callback", h.GoogleCallbackHandler).Methods(http.MethodGet)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	user, err := h.local.Register(r.Context(), domain.Credentials{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"message": "verification code sent",
		"user":    user,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}

	token, err := h.providerHandler[domain.ProviderLocal].Login(r.Context(), domain.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"token": token})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	if err := h.local.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"message": "email verified"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	if err := h.local.ForgotPassword(r.Context(), req.Email); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "if the account exists a reset link has been sent",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	if err := h.local.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"message": "password updated"})
}

// GoogleLoginHandler redirects user to Google OAuth2 login
func (h *Handler) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil {
		handlers.ResponseError(w, "google login is not configured", http.StatusNotFound)
		return
	}

	state, err := randomState()
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallbackHandler handles Google OAuth2 callback
func (h *Handler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil {
		handlers.ResponseError(w, "google login is not configured", http.StatusNotFound)
		return
	}
	ctx := r.Context()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		handlers.ResponseError(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	// Get authorization code from URL
	code := r.URL.Query().Get("code")
	if code == "" {
		handlers.ResponseError(w, "no code in URL", http.StatusBadRequest)
		return
	}
	// Exchange code for access token
	token, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		h.logger.Warn("Failed to exchange oauth code", "error", err)
		handlers.ResponseError(w, "failed to get token", http.StatusUnauthorized)
		return
	}

	googleUser, err := h.fetchGoogleUser(r, token)
	if err != nil {
		h.logger.Error("Failed to get google user info", "error", err)
		handlers.ResponseError(w, "failed to get user info", http.StatusBadGateway)
		return
	}

	tokenStr, err := h.providerHandler[domain.ProviderGoogle].Login(ctx, domain.Credentials{
		Email:     googleUser.Email,
		FirstName: googleUser.GivenName,
		LastName:  googleUser.FamilyName,
		GoogleID:  &googleUser.ID,

		EmailVerified: googleUser.EmailVerified,
	})
	if err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"token": tokenStr})
}

func (h *Handler) fetchGoogleUser(r *http.Request, token *oauth2.Token) (*GoogleUser, error) {
	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var googleUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, err
	}
	return &googleUser, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
