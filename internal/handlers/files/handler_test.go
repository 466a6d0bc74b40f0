package files

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/archive"
	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/adapter/memory"
	"gitlab.com/magneto-ui.net/internal/core/services/file"
	"gitlab.com/magneto-ui.net/internal/core/services/servicetest"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/handlers"
)

type env struct {
	router *mux.Router
	db     *servicetest.DB
	files  *servicetest.Blobs
	user   uuid.UUID
	test   *domain.Test
}

func newEnv(t *testing.T, maxBytes int64) *env {
	logger := logging.NewZapLoggerWithLevel("error")
	e := &env{router: mux.NewRouter(), db: servicetest.NewDB(), files: servicetest.NewBlobs(), user: uuid.New()}
	e.test = e.db.AddTest(e.db.AddApp(e.user, "Demo"), "t1", nil)
	svc := file.NewFileService(e.db.Tests(), e.files, archive.NewZipStager(logger), memory.NewRunLock(time.Minute), t.TempDir(), logger)
	NewFileHandler(svc, maxBytes, logger).RegisterRoutes(e.router)
	return e
}

func traceZip(t *testing.T) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("trace/screens.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`[]`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func form(t *testing.T, fields map[string]string, filename string, data []byte) (*bytes.Buffer, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func (e *env) upload(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(handlers.WithUserID(req.Context(), e.user))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	e := newEnv(t, 1<<20)
	body, ct := form(t, map[string]string{"testId": e.test.ID.String()}, "trace.zip", traceZip(t))

	rec := e.upload(body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool            `json:"success"`
		File    domain.BlobInfo `json:"file"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "trace.zip", resp.File.Filename)
	require.NotNil(t, e.db.Test(e.test.ID).FileID)
	assert.Equal(t, resp.File.ID, *e.db.Test(e.test.ID).FileID)
}

func TestUpload_Rejections(t *testing.T) {
	e := newEnv(t, 1<<20)

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		wantCode int
		wantMsg  string
	}{
		{"missing file", map[string]string{"testId": e.test.ID.String()}, "", http.StatusBadRequest, "file is required"},
		{"bad test id", map[string]string{"testId": "nope"}, "trace.zip", http.StatusBadRequest, "testId must be a UUID"},
		{"missing test id", nil, "trace.zip", http.StatusBadRequest, "testId is required"},
		{"not a zip", map[string]string{"testId": e.test.ID.String()}, "trace.tar", http.StatusBadRequest, "zip"},
		{"foreign test", map[string]string{"testId": uuid.NewString()}, "trace.zip", http.StatusNotFound, "test not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := form(t, tt.fields, tt.filename, traceZip(t))
			rec := e.upload(body, ct)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
	assert.Zero(t, e.files.Len())
}

func TestUpload_TooLarge(t *testing.T) {
	e := newEnv(t, 512)
	body, ct := form(t, map[string]string{"testId": e.test.ID.String()}, "trace.zip", bytes.Repeat([]byte{1}, 4096))

	rec := e.upload(body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, e.files.Len())
}
