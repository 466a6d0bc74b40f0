package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/adapter/memory"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/core/services/servicetest"
	"gitlab.com/magneto-ui.net/internal/core/services/test"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/handlers"
)

type env struct {
	router  *mux.Router
	db      *servicetest.DB
	files   *servicetest.Blobs
	results *servicetest.Blobs
	user    uuid.UUID
	app     *domain.App
}

func newEnv(t *testing.T) *env {
	logger := logging.NewZapLoggerWithLevel("error")
	e := &env{
		router:  mux.NewRouter(),
		db:      servicetest.NewDB(),
		files:   servicetest.NewBlobs(),
		results: servicetest.NewBlobs(),
		user:    uuid.New(),
	}
	e.app = e.db.AddApp(e.user, "Demo")
	purger := cleanup.NewPurger(e.files, e.results, t.TempDir(), logger)
	svc := test.NewTestService(e.db.Apps(), e.db.Tests(), e.files, e.results, &servicetest.Tx{}, memory.NewRunLock(time.Minute), purger, logger)
	NewTestHandler(svc, logger).RegisterRoutes(e.router)
	return e
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(handlers.WithUserID(req.Context(), e.user))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndList(t *testing.T) {
	e := newEnv(t)
	base := "/api/apps/" + e.app.ID.String() + "/tests"

	rec := e.do(http.MethodPost, base, `{"name":"t1","oracle":"Theme Check"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Test domain.Test `json:"test"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.TestStatusPending, created.Test.Status)

	rec = e.do(http.MethodPost, base, `{"name":"t2","oracle":"Contrast"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Tests []domain.Test `json:"tests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Tests, 1)
	assert.Equal(t, created.Test.ID, listed.Tests[0].ID)
}

func TestNotesAndDelete(t *testing.T) {
	e := newEnv(t)
	tst := e.db.AddTest(e.app, "t1", nil)
	path := "/api/tests/" + tst.ID.String()

	rec := e.do(http.MethodPatch, path+"/notes", `{"notes":"looks fine"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "looks fine", e.db.Test(tst.ID).Notes)

	rec = e.do(http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, e.db.Test(tst.ID))
}

func TestDownloads(t *testing.T) {
	e := newEnv(t)
	fileID := e.files.Put(nil, "trace.zip", []byte("zip-bytes"), time.Now())
	tst := e.db.AddTest(e.app, "t1", &fileID)
	path := "/api/tests/" + tst.ID.String()

	rec := e.do(http.MethodGet, path+"/result", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no result available")

	e.results.Put(&tst.ID, "report.pdf", []byte("%PDF-1.4"), time.Now())
	rec = e.do(http.MethodGet, path+"/result", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=report.pdf`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = e.do(http.MethodGet, path+"/input", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, "zip-bytes", rec.Body.String())
}
