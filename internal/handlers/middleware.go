package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

type userIDKey struct{}

type MiddlewareProvider struct {
	jwtProvider primary.JWTService
	logger      primary.Logger
}

func New(jwtProvider primary.JWTService, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		jwtProvider: jwtProvider,
		logger:      logger,
	}
}

// JWTMiddleware answers 401 without a bearer token and 403 for an invalid one.
// The authenticated user id is available to handlers through UserID.
func (m *MiddlewareProvider) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			ResponseError(w, errs.MissingToken.Error(), http.StatusUnauthorized)
			return
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		payload, err := m.jwtProvider.ParseTokenHMAC(r.Context(), tokenString)
		if err != nil || payload.UserID == uuid.Nil {
			m.logger.Debug("Rejected token", "path", r.URL.Path, "error", err)
			ResponseError(w, errs.InvalidToken.Error(), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), payload.UserID)))
	})
}

// WithUserID binds an authenticated user id to ctx
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the id bound by JWTMiddleware, uuid.Nil outside authenticated routes
func UserID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(userIDKey{}).(uuid.UUID)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request
func (m *MiddlewareProvider) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started))
	})
}
