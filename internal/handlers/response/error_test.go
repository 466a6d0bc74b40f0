package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/static/errs"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"field validation", fmt.Errorf("transaction aborted: %w", errs.NameRequired), http.StatusBadRequest, "name is required"},
		{"decoded validation", fmt.Errorf("%w: argA is required", errs.ErrValidation), http.StatusBadRequest, "validation failed: argA is required"},
		{"unknown oracle", fmt.Errorf("%w: %q", errs.ErrUnknownOracle, "contrast"), http.StatusBadRequest, `unknown oracle: "contrast"`},
		{"not found through tx", fmt.Errorf("transaction aborted: %w", errs.ErrAppNotFound), http.StatusNotFound, "app not found"},
		{"run in progress", errs.ErrRunInProgress, http.StatusConflict, errs.ErrRunInProgress.Error()},
		{"unverified", errs.EmailNotVerified, http.StatusForbidden, errs.EmailNotVerified.Error()},
		{"script failure", &errs.ScriptError{ExitCode: 1, Stderr: "boom\n"}, http.StatusInternalServerError, "boom"},
		{"timeout", fmt.Errorf("%w after 10m0s", errs.ErrScriptTimeout), http.StatusGatewayTimeout, "oracle script timed out after 10m0s"},
		{"missing dir", fmt.Errorf("%w: /srv/unzipped/x", errs.ErrUnzippedDirNotFound), http.StatusInternalServerError, "unzipped directory not found"},
		{"internal", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.msg, got.Message)
		})
	}
}

func TestEnvelopes(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrorMessage{Message: "boom", StatusCode: http.StatusInternalServerError})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteSuccess(rec, http.StatusOK, map[string]interface{}{"output": "OK"})
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"success": true, "output": "OK"}, body)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
