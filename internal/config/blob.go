package config

type BlobBackend string

const (
	BlobBackendPostgres BlobBackend = "postgres"
	BlobBackendS3       BlobBackend = "s3"
)

type BlobConfig struct {
	Backend BlobBackend
	S3      *S3Config
}

type S3Config struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Bucket       string
}

func NewBlobConfig() *BlobConfig {
	return &BlobConfig{
		Backend: BlobBackend(getEnv("BLOB_BACKEND", string(BlobBackendPostgres))),
		S3: &S3Config{
			Region:       getEnv("S3_REGION", "us-east-1"),
			BaseEndpoint: getEnv("S3_ENDPOINT", "http://localhost:9000"),
			AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("S3_SECRET_KEY", ""),
			Bucket:       getEnv("S3_BUCKET", "magneto"),
		},
	}
}
