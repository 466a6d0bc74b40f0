package blobstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/magneto-ui.net/internal/adapter/postgres/dbx"
	"gitlab.com/magneto-ui.net/internal/domain"
	querybuilder "gitlab.com/magneto-ui.net/internal/utils"
)

const (
	colBlobID = "blob_id"
	colN      = "n"
	colData   = "data"
)

var _ Payload = (*ChunkPayload)(nil)

// ChunkPayload splits payloads into numbered bytea rows
type ChunkPayload struct {
	db        *sqlx.DB
	schema    string
	table     string
	chunkSize int
}

func NewChunkPayload(db *sqlx.DB, schema string, bucket domain.Bucket) *ChunkPayload {
	return &ChunkPayload{
		db:        db,
		schema:    schema,
		table:     bucket.ChunksTable(),
		chunkSize: domain.DefaultChunkSize,
	}
}

func (c *ChunkPayload) ChunkSize() int {
	return c.chunkSize
}

func (c *ChunkPayload) Write(ctx context.Context, conn dbx.DBTX, blobID uuid.UUID, r io.Reader) (int64, error) {
	buf := make([]byte, c.chunkSize)
	var length int64
	for n := 0; ; n++ {
		read, readErr := io.ReadFull(r, buf)
		if read > 0 {
			query, args := querybuilder.NewQueryBuilder(c.schema).
				Insert(colBlobID, colN, colData).
				Into(c.table).
				Values(blobID, n, buf[:read]).
				Build()
			if _, err := conn.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
				return 0, fmt.Errorf("failed to insert blob chunk %d: %w", n, err)
			}
			length += int64(read)
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			return length, nil
		}
		if readErr != nil {
			return 0, fmt.Errorf("failed to read blob stream: %w", readErr)
		}
	}
}

func (c *ChunkPayload) Open(ctx context.Context, blobID uuid.UUID) (io.ReadCloser, error) {
	return &chunkReader{ctx: ctx, payload: c, blobID: blobID}, nil
}

func (c *ChunkPayload) Delete(ctx context.Context, conn dbx.DBTX, blobIDs []uuid.UUID) error {
	query, args := querybuilder.NewQueryBuilder(c.schema).
		Delete(c.table).
		Where(fmt.Sprintf("%s = ANY(?)", colBlobID), dbx.UUIDArray(blobIDs)).
		Build()
	if _, err := conn.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return fmt.Errorf("failed to delete blob chunks: %w", err)
	}
	return nil
}

// chunkReader fetches one chunk row per refill so large blobs are never held in memory
type chunkReader struct {
	ctx     context.Context
	payload *ChunkPayload
	blobID  uuid.UUID
	next    int
	buf     bytes.Reader
	done    bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for r.buf.Len() == 0 {
		if r.done {
			return 0, io.EOF
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	return r.buf.Read(p)
}

func (r *chunkReader) fill() error {
	query, args := querybuilder.NewQueryBuilder(r.payload.schema).
		Select(colData).
		From(r.payload.table).
		Where(fmt.Sprintf("%s = ?", colBlobID), r.blobID).
		And(fmt.Sprintf("%s = ?", colN), r.next).
		Build()

	var data []byte
	err := dbx.Conn(r.ctx, r.payload.db).GetContext(r.ctx, &data, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		r.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read blob chunk %d: %w", r.next, err)
	}
	r.next++
	r.buf.Reset(data)
	return nil
}

func (r *chunkReader) Close() error {
	r.done = true
	return nil
}
