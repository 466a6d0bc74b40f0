package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"gitlab.com/magneto-ui.net/internal/static/errs"
)

// ErrorMessage is the failure envelope every endpoint answers with
type ErrorMessage struct {
	Success    bool   `json:"success"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func WriteError(w http.ResponseWriter, err ErrorMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(err)
}

// WriteSuccess writes {"success": true} merged with fields
func WriteSuccess(w http.ResponseWriter, statusCode int, fields map[string]interface{}) {
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

type mapping struct {
	target error
	status int
	// detailed errors carry context worth showing, e.g. the rejected field or path
	detailed bool
}

var mappings = []mapping{
	{errs.ErrValidation, http.StatusBadRequest, true},
	{errs.ErrUnknownOracle, http.StatusBadRequest, true},
	{errs.ErrExtraction, http.StatusBadRequest, true},
	{errs.InvalidCode, http.StatusBadRequest, false},
	{errs.InvalidResetToken, http.StatusBadRequest, false},
	{errs.InvalidCredentials, http.StatusUnauthorized, false},
	{errs.MissingToken, http.StatusUnauthorized, false},
	{errs.EmailNotVerified, http.StatusForbidden, false},
	{errs.InvalidToken, http.StatusForbidden, false},
	{errs.ErrUserNotFound, http.StatusNotFound, false},
	{errs.ErrAppNotFound, http.StatusNotFound, false},
	{errs.ErrTestNotFound, http.StatusNotFound, false},
	{errs.ErrBlobNotFound, http.StatusNotFound, false},
	{errs.ErrNoResult, http.StatusNotFound, false},
	{errs.EmailTaken, http.StatusConflict, false},
	{errs.ErrRunInProgress, http.StatusConflict, false},
	{errs.ErrScriptTimeout, http.StatusGatewayTimeout, true},
	{errs.ErrUnzippedDirNotFound, http.StatusInternalServerError, false},
}

// FromError maps a service error to its status code and client-facing message.
// Unrecognised errors become a generic 500 so internals do not leak.
func FromError(err error) ErrorMessage {
	if errs.IsValidation(err) {
		return ErrorMessage{Message: validationMessage(err), StatusCode: http.StatusBadRequest}
	}

	var scriptErr *errs.ScriptError
	if errors.As(err, &scriptErr) {
		return ErrorMessage{Message: scriptErr.Error(), StatusCode: http.StatusInternalServerError}
	}

	for _, m := range mappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.target.Error()
		if m.detailed {
			msg = err.Error()
		}
		return ErrorMessage{Message: msg, StatusCode: m.status}
	}
	return ErrorMessage{Message: errs.InternalError.Error(), StatusCode: http.StatusInternalServerError}
}

func validationMessage(err error) string {
	if errors.Is(err, errs.ErrValidation) {
		return err.Error()
	}
	// field sentinels are the complete message; strip wrapping such as "transaction aborted: "
	for u := err; u != nil; u = errors.Unwrap(u) {
		if errs.IsValidation(u) && errors.Unwrap(u) == nil {
			return u.Error()
		}
	}
	return err.Error()
}
