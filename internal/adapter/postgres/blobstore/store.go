// Package blobstore keeps blob metadata rows in Postgres next to a pluggable payload
package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/magneto-ui.net/internal/adapter/postgres/dbx"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
	querybuilder "gitlab.com/magneto-ui.net/internal/utils"
)

const defaultContentType = "application/octet-stream"

var _ secondary.BlobStore = (*Store)(nil)

// Payload persists blob bytes. The metadata row is always owned by Store.
type Payload interface {
	Write(ctx context.Context, conn dbx.DBTX, blobID uuid.UUID, r io.Reader) (int64, error)
	Open(ctx context.Context, blobID uuid.UUID) (io.ReadCloser, error)
	Delete(ctx context.Context, conn dbx.DBTX, blobIDs []uuid.UUID) error
	ChunkSize() int
}

type Store struct {
	db      *sqlx.DB
	logger  primary.Logger
	schema  string
	bucket  domain.Bucket
	payload Payload
	tx      secondary.Transactor
}

// New keeps payloads as chunk rows in <bucket>_chunks
func New(db *sqlx.DB, logger primary.Logger, schema string, bucket domain.Bucket) *Store {
	return NewWithPayload(db, logger, schema, bucket, NewChunkPayload(db, schema, bucket))
}

func NewWithPayload(db *sqlx.DB, logger primary.Logger, schema string, bucket domain.Bucket, payload Payload) *Store {
	return &Store{
		db:      db,
		logger:  logger,
		schema:  schema,
		bucket:  bucket,
		payload: payload,
		tx:      dbx.NewTransactor(db, logger),
	}
}

func (s *Store) qb() querybuilder.QueryBuilder {
	return querybuilder.NewQueryBuilder(s.schema)
}

// Store writes the metadata row first so chunk rows can reference it, then
// fixes up the length once the stream is drained. Nothing is visible until commit.
func (s *Store) Store(ctx context.Context, r io.Reader, filename string, meta domain.BlobMeta) (uuid.UUID, error) {
	tbl := domain.GetBlobTable()
	id := uuid.New()
	contentType := meta.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		conn := dbx.Conn(ctx, s.db)

		query, args := s.qb().
			Insert(tbl.Columns()...).
			Into(s.bucket.MetadataTable()).
			Values(id, filename, contentType, 0, s.payload.ChunkSize(), meta.TestID, time.Now().UTC()).
			Build()
		if _, err := conn.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
			return fmt.Errorf("failed to insert blob metadata: %w", err)
		}

		length, err := s.payload.Write(ctx, conn, id, r)
		if err != nil {
			return err
		}

		query, args = s.qb().
			Update(s.bucket.MetadataTable(), querybuilder.UpdateData{tbl.Length: length}).
			Where(fmt.Sprintf("%s = ?", tbl.ID), id).
			Build()
		if _, err := conn.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
			return fmt.Errorf("failed to record blob length: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to store blob", "bucket", s.bucket, "filename", filename, "error", err)
		return uuid.Nil, err
	}

	s.logger.Debug("Stored blob", "bucket", s.bucket, "blobID", id, "filename", filename)
	return id, nil
}

func (s *Store) Retrieve(ctx context.Context, blobID uuid.UUID) (*domain.BlobInfo, io.ReadCloser, error) {
	infos, err := s.Query(ctx, domain.BlobQuery{Filter: domain.BlobFilter{IDs: []uuid.UUID{blobID}}, Limit: 1})
	if err != nil {
		return nil, nil, err
	}
	if len(infos) == 0 {
		return nil, nil, errs.ErrBlobNotFound
	}
	rc, err := s.payload.Open(ctx, blobID)
	if err != nil {
		s.logger.Error("Failed to open blob payload", "bucket", s.bucket, "blobID", blobID, "error", err)
		return nil, nil, err
	}
	return infos[0], rc, nil
}

func (s *Store) Query(ctx context.Context, q domain.BlobQuery) ([]*domain.BlobInfo, error) {
	tbl := domain.GetBlobTable()
	builder := s.qb().
		Select(tbl.Columns()...).
		From(s.bucket.MetadataTable())

	if len(q.Filter.IDs) > 0 {
		builder.Where(fmt.Sprintf("%s = ANY(?)", tbl.ID), dbx.UUIDArray(q.Filter.IDs))
	}
	if q.Filter.TestID != nil {
		builder.Where(fmt.Sprintf("%s = ?", tbl.TestID), *q.Filter.TestID)
	}
	if q.Filter.UploadedBefore != nil {
		builder.Where(fmt.Sprintf("%s < ?", tbl.UploadedAt), *q.Filter.UploadedBefore)
	}
	if q.NewestFirst {
		builder.OrderBy(tbl.UploadedAt, false)
	}
	if q.Limit > 0 {
		builder.Limit(q.Limit)
	}

	query, args := builder.Build()
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	infos := make([]*domain.BlobInfo, 0)
	if err := dbx.Conn(ctx, s.db).SelectContext(ctx, &infos, query, args...); err != nil {
		s.logger.Error("Failed to query blobs", "bucket", s.bucket, "error", err)
		return nil, fmt.Errorf("failed to query blobs: %w", err)
	}
	return infos, nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	tbl := domain.GetBlobTable()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		conn := dbx.Conn(ctx, s.db)

		if err := s.payload.Delete(ctx, conn, ids); err != nil {
			return err
		}

		query, args := s.qb().
			Delete(s.bucket.MetadataTable()).
			Where(fmt.Sprintf("%s = ANY(?)", tbl.ID), dbx.UUIDArray(ids)).
			Build()
		if _, err := conn.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
			return fmt.Errorf("failed to delete blob metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to delete blobs", "bucket", s.bucket, "count", len(ids), "error", err)
		return err
	}
	return nil
}
