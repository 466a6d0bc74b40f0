package apps

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/core/services/app"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/core/services/servicetest"
	"gitlab.com/magneto-ui.net/internal/handlers"
)

type env struct {
	router *mux.Router
	db     *servicetest.DB
	user   uuid.UUID
}

func newEnv(t *testing.T) *env {
	logger := logging.NewZapLoggerWithLevel("error")
	db := servicetest.NewDB()
	purger := cleanup.NewPurger(servicetest.NewBlobs(), servicetest.NewBlobs(), t.TempDir(), logger)
	e := &env{router: mux.NewRouter(), db: db, user: uuid.New()}
	NewAppHandler(app.NewAppService(db.Apps(), db.Tests(), &servicetest.Tx{}, purger, logger), logger).RegisterRoutes(e.router)
	return e
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(handlers.WithUserID(req.Context(), e.user))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAppLifecycle(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/apps", `{"name":"Demo","description":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Success bool `json:"success"`
		App     struct {
			ID    uuid.UUID   `json:"id"`
			Tests []uuid.UUID `json:"tests"`
		} `json:"app"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.NotNil(t, created.App.Tests)
	assert.Empty(t, created.App.Tests)
	appPath := "/api/apps/" + created.App.ID.String()

	rec = e.do(http.MethodGet, "/api/apps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.App.ID.String())

	rec = e.do(http.MethodPatch, appPath+"/name", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Renamed"`)

	rec = e.do(http.MethodPatch, appPath+"/description", `{"description":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodDelete, appPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, e.db.App(created.App.ID))

	rec = e.do(http.MethodDelete, appPath, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"app not found"}`, rec.Body.String())
}

func TestCreateApp_MissingFields(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/api/apps", `{"name":"Demo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "description is required")
}

func TestBadAppID(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodDelete, "/api/apps/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
