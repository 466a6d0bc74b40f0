package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bucket names a blob namespace. Each bucket is a metadata table plus a chunk table.
type Bucket string

const (
	BucketFiles   Bucket = "files"
	BucketResults Bucket = "results"
)

func (b Bucket) MetadataTable() string {
	return string(b)
}

func (b Bucket) ChunksTable() string {
	return string(b) + "_chunks"
}

// DefaultChunkSize matches the chunk size clients of chunked stores usually expect
const DefaultChunkSize = 255 * 1024

// BlobMeta is the association metadata supplied when storing a blob
type BlobMeta struct {
	ContentType string
	TestID      *uuid.UUID
}

// BlobInfo describes a stored blob
type BlobInfo struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Filename    string     `db:"filename" json:"filename"`
	ContentType string     `db:"content_type" json:"contentType"`
	Length      int64      `db:"length" json:"length"`
	ChunkSize   int        `db:"chunk_size" json:"chunkSize"`
	TestID      *uuid.UUID `db:"test_id" json:"testId"`
	UploadedAt  time.Time  `db:"uploaded_at" json:"uploadedAt"`
}

// BlobFilter selects blobs by association metadata
type BlobFilter struct {
	IDs            []uuid.UUID
	TestID         *uuid.UUID
	UploadedBefore *time.Time
}

// BlobQuery is a filter plus ordering and limit
type BlobQuery struct {
	Filter      BlobFilter
	NewestFirst bool
	Limit       int
}

type BlobsTable struct {
	ID          string
	Filename    string
	ContentType string
	Length      string
	ChunkSize   string
	TestID      string
	UploadedAt  string
}

func GetBlobTable() BlobsTable {
	return BlobsTable{
		ID:          "id",
		Filename:    "filename",
		ContentType: "content_type",
		Length:      "length",
		ChunkSize:   "chunk_size",
		TestID:      "test_id",
		UploadedAt:  "uploaded_at",
	}
}

func (t BlobsTable) Columns() []string {
	return []string{t.ID, t.Filename, t.ContentType, t.Length, t.ChunkSize, t.TestID, t.UploadedAt}
}
