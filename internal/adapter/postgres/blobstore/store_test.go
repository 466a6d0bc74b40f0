package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

var blobCols = []string{"id", "filename", "content_type", "length", "chunk_size", "test_id", "uploaded_at"}

func newStore(t *testing.T, bucket domain.Bucket) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	s := New(sqlx.NewDb(raw, "postgres"), logging.NewZapLoggerWithLevel("error"), "public", bucket)
	s.payload.(*ChunkPayload).chunkSize = 4
	return s, mock
}

func TestStore_WritesMetadataAndChunksInOneTx(t *testing.T) {
	s, mock := newStore(t, domain.BucketFiles)
	testID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.files (id, filename, content_type, length, chunk_size, test_id, uploaded_at)")).
		WithArgs(sqlmock.AnyArg(), "trace.zip", "application/zip", 0, 4, testID.String(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.files_chunks (blob_id, n, data)")).
		WithArgs(sqlmock.AnyArg(), 0, []byte("abcd")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.files_chunks (blob_id, n, data)")).
		WithArgs(sqlmock.AnyArg(), 1, []byte("ef")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE public.files SET length = $1 WHERE id = $2")).
		WithArgs(int64(6), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := s.Store(context.Background(), bytes.NewReader([]byte("abcdef")), "trace.zip",
		domain.BlobMeta{ContentType: "application/zip", TestID: &testID})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ChunkFailureRollsBack(t *testing.T) {
	s, mock := newStore(t, domain.BucketResults)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO public.results ").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO public.results_chunks").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.Store(context.Background(), bytes.NewReader([]byte("abc")), "report.pdf", domain.BlobMeta{})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrieve_StreamsChunksInOrder(t *testing.T) {
	s, mock := newStore(t, domain.BucketFiles)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, filename, content_type, length, chunk_size, test_id, uploaded_at FROM public.files WHERE id = ANY($1) LIMIT 1")).
		WillReturnRows(sqlmock.NewRows(blobCols).AddRow(id.String(), "trace.zip", "application/zip", 6, 4, nil, time.Now()))
	chunkQuery := regexp.QuoteMeta("SELECT data FROM public.files_chunks WHERE blob_id = $1 AND n = $2")
	mock.ExpectQuery(chunkQuery).WithArgs(id.String(), 0).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte("abcd")))
	mock.ExpectQuery(chunkQuery).WithArgs(id.String(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte("ef")))
	mock.ExpectQuery(chunkQuery).WithArgs(id.String(), 2).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	info, rc, err := s.Retrieve(context.Background(), id)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "trace.zip", info.Filename)
	assert.Equal(t, int64(6), info.Length)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrieve_UnknownBlob(t *testing.T) {
	s, mock := newStore(t, domain.BucketFiles)
	mock.ExpectQuery("FROM public.files").WillReturnRows(sqlmock.NewRows(blobCols))

	_, _, err := s.Retrieve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrBlobNotFound)
}

func TestQuery_ByTestNewestFirst(t *testing.T) {
	s, mock := newStore(t, domain.BucketResults)
	testID := uuid.New()
	before := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, filename, content_type, length, chunk_size, test_id, uploaded_at FROM public.results WHERE test_id = $1 AND uploaded_at < $2 ORDER BY uploaded_at DESC LIMIT 1")).
		WithArgs(testID.String(), before).
		WillReturnRows(sqlmock.NewRows(blobCols).AddRow(uuid.NewString(), "report.pdf", "application/pdf", 10, 4, testID.String(), before))

	infos, err := s.Query(context.Background(), domain.BlobQuery{
		Filter:      domain.BlobFilter{TestID: &testID, UploadedBefore: &before},
		NewestFirst: true,
		Limit:       1,
	})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "report.pdf", infos[0].Filename)
}

func TestDeleteMany_RemovesChunksThenMetadata(t *testing.T) {
	s, mock := newStore(t, domain.BucketFiles)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM public.files_chunks WHERE blob_id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM public.files WHERE id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteMany(context.Background(), []uuid.UUID{uuid.New()}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMany_NoIDsIsNoop(t *testing.T) {
	s, mock := newStore(t, domain.BucketFiles)
	require.NoError(t, s.DeleteMany(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
