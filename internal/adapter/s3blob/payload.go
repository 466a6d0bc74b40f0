// Package s3blob stores blob payloads as objects in an S3-compatible bucket (MinIO in development)
package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/adapter/postgres/blobstore"
	"gitlab.com/magneto-ui.net/internal/adapter/postgres/dbx"
	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

// deleteBatch is the DeleteObjects per-request key limit
const deleteBatch = 1000

type ObjectAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

var _ ObjectAPI = (*s3.Client)(nil)

// NewClient builds a path-style client from static credentials
func NewClient(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

var _ blobstore.Payload = (*Payload)(nil)

type Payload struct {
	client ObjectAPI
	bucket string
	prefix string
	logger primary.Logger
}

// NewPayload keys objects as <blob bucket>/<blob id> inside the S3 bucket
func NewPayload(client ObjectAPI, s3Bucket string, blobBucket domain.Bucket, logger primary.Logger) *Payload {
	return &Payload{
		client: client,
		bucket: s3Bucket,
		prefix: string(blobBucket),
		logger: logger,
	}
}

func (p *Payload) key(id uuid.UUID) string {
	return p.prefix + "/" + id.String()
}

// ChunkSize is zero since objects are stored whole
func (p *Payload) ChunkSize() int {
	return 0
}

// EnsureBucket creates the bucket when it does not exist yet
func (p *Payload) EnsureBucket(ctx context.Context) error {
	if _, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err == nil {
		return nil
	}
	_, err := p.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(p.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		p.logger.Error("Failed to create bucket", "bucket", p.bucket, "error", err)
		return fmt.Errorf("failed to create bucket %s: %w", p.bucket, err)
	}
	return nil
}

// Write needs the payload length up front, so non-seekable streams are spooled to disk first
func (p *Payload) Write(ctx context.Context, _ dbx.DBTX, blobID uuid.UUID, r io.Reader) (int64, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		tmp, err := os.CreateTemp("", "blob-*")
		if err != nil {
			return 0, fmt.Errorf("failed to create spool file: %w", err)
		}
		defer func() {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}()
		if _, err := io.Copy(tmp, r); err != nil {
			return 0, fmt.Errorf("failed to spool blob stream: %w", err)
		}
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return 0, fmt.Errorf("failed to rewind spool file: %w", err)
		}
		rs = tmp
	}

	length, err := remaining(rs)
	if err != nil {
		return 0, fmt.Errorf("failed to size blob stream: %w", err)
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(p.key(blobID)),
		Body:          rs,
		ContentLength: aws.Int64(length),
	})
	if err != nil {
		p.logger.Error("Failed to put object", "key", p.key(blobID), "error", err)
		return 0, fmt.Errorf("failed to put object: %w", err)
	}
	return length, nil
}

func (p *Payload) Open(ctx context.Context, blobID uuid.UUID) (io.ReadCloser, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(blobID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, errs.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (p *Payload) Delete(ctx context.Context, _ dbx.DBTX, blobIDs []uuid.UUID) error {
	for start := 0; start < len(blobIDs); start += deleteBatch {
		end := min(start+deleteBatch, len(blobIDs))
		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, id := range blobIDs[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(p.key(id))})
		}

		out, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(p.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		for _, e := range out.Errors {
			p.logger.Warn("Object not deleted", "key", aws.ToString(e.Key), "reason", aws.ToString(e.Message))
		}
	}
	return nil
}

// remaining reports how many bytes are left after the current offset
func remaining(rs io.ReadSeeker) (int64, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	return end - start, nil
}
