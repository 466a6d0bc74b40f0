package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gitlab.com/magneto-ui.net/internal/adapter/archive"
	"gitlab.com/magneto-ui.net/internal/adapter/crypto"
	"gitlab.com/magneto-ui.net/internal/adapter/executor"
	"gitlab.com/magneto-ui.net/internal/adapter/filesystem"
	"gitlab.com/magneto-ui.net/internal/adapter/mail"
	"gitlab.com/magneto-ui.net/internal/adapter/memory"
	"gitlab.com/magneto-ui.net/internal/adapter/postgres/apprepository"
	"gitlab.com/magneto-ui.net/internal/adapter/postgres/blobstore"
	"gitlab.com/magneto-ui.net/internal/adapter/postgres/dbx"
	"gitlab.com/magneto-ui.net/internal/adapter/postgres/migrations"
	"gitlab.com/magneto-ui.net/internal/adapter/postgres/testrepository"
	"gitlab.com/magneto-ui.net/internal/adapter/postgres/userrepository"
	"gitlab.com/magneto-ui.net/internal/adapter/redis/runlock"
	"gitlab.com/magneto-ui.net/internal/adapter/s3blob"
	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/core/services/app"
	auth2 "gitlab.com/magneto-ui.net/internal/core/services/auth"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/core/services/file"
	"gitlab.com/magneto-ui.net/internal/core/services/oracle"
	"gitlab.com/magneto-ui.net/internal/core/services/test"
	"gitlab.com/magneto-ui.net/internal/core/services/user"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/handlers/health"
	http2 "gitlab.com/magneto-ui.net/internal/http"
	"gitlab.com/magneto-ui.net/internal/schedulerengine"
)

// stores are ready for use once setupStores returns
type stores struct {
	db      *sqlx.DB
	redis   *redis.Client
	users   secondary.UserPort
	apps    secondary.AppRepository
	tests   secondary.TestRepository
	files   secondary.BlobStore
	results secondary.BlobStore
}

func (s *stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	_ = s.db.Close()
}

func (s *stores) buckets() map[domain.Bucket]secondary.BlobStore {
	return map[domain.Bucket]secondary.BlobStore{
		domain.BucketFiles:   s.files,
		domain.BucketResults: s.results,
	}
}

// setupDatabase opens the PostgreSQL connection and applies pending migrations
func setupDatabase(ctx context.Context, cfg *config.PostgresConfig, logger primary.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Up(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("Database ready", "schema", cfg.Schema)
	return db, nil
}

// setupStores initializes every store before any request is served
func setupStores(ctx context.Context, sysCfg *config.AppConfig, logger primary.Logger) (*stores, error) {
	db, err := setupDatabase(ctx, sysCfg.PostgresConfig, logger)
	if err != nil {
		return nil, err
	}
	schema := sysCfg.PostgresConfig.Schema
	st := &stores{
		db:    db,
		users: userrepository.New(db, logger, schema),
		apps:  apprepository.New(db, logger, schema),
		tests: testrepository.New(db, logger, schema),
	}

	switch sysCfg.BlobConfig.Backend {
	case config.BlobBackendS3:
		client, err := s3blob.NewClient(ctx, sysCfg.BlobConfig.S3)
		if err != nil {
			st.Close()
			return nil, err
		}
		s3Bucket := sysCfg.BlobConfig.S3.Bucket
		filesPayload := s3blob.NewPayload(client, s3Bucket, domain.BucketFiles, logger)
		if err := filesPayload.EnsureBucket(ctx); err != nil {
			st.Close()
			return nil, err
		}
		st.files = blobstore.NewWithPayload(db, logger, schema, domain.BucketFiles, filesPayload)
		st.results = blobstore.NewWithPayload(db, logger, schema, domain.BucketResults,
			s3blob.NewPayload(client, s3Bucket, domain.BucketResults, logger))
	case config.BlobBackendPostgres:
		st.files = blobstore.New(db, logger, schema, domain.BucketFiles)
		st.results = blobstore.New(db, logger, schema, domain.BucketResults)
	default:
		st.Close()
		return nil, fmt.Errorf("unknown blob backend %q", sysCfg.BlobConfig.Backend)
	}

	if sysCfg.RedisConfig.Enabled {
		st.redis = redis.NewClient(&redis.Options{
			Addr:     sysCfg.RedisConfig.Url,
			Password: sysCfg.RedisConfig.Password,
			DB:       sysCfg.RedisConfig.DB,
		})
		if err := st.redis.Ping(ctx).Err(); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
	}
	logger.Info("Stores ready", "blobBackend", sysCfg.BlobConfig.Backend, "redis", sysCfg.RedisConfig.Enabled)
	return st, nil
}

func newRunLock(sysCfg *config.AppConfig, st *stores, logger primary.Logger) secondary.RunLock {
	ttl := sysCfg.OracleConfig.RunLockTTL()
	if st.redis != nil {
		return runlock.NewRedisLock(st.redis, ttl, logger)
	}
	return memory.NewRunLock(ttl)
}

func newReconciler(sysCfg *config.AppConfig, st *stores, logger primary.Logger) *schedulerengine.Reconciler {
	return schedulerengine.NewReconciler(sysCfg.ReconcileCfg, st.tests, st.buckets(), sysCfg.OracleConfig.UnzipRoot, logger)
}

func healthChecks(st *stores) []health.Check {
	checks := []health.Check{{Name: "postgres", Ping: st.db.PingContext}}
	if st.redis != nil {
		checks = append(checks, health.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return st.redis.Ping(ctx).Err()
		}})
	}
	return checks
}

// newServiceProvider wires adapters into services
func newServiceProvider(sysCfg *config.AppConfig, st *stores, logger primary.Logger) *http2.ServiceProvider {
	oracleCfg := sysCfg.OracleConfig

	//primary ports
	jwtProvider := crypto.NewJWTService(sysCfg.JwtConfig)

	//secondary ports
	tx := dbx.NewTransactor(st.db, logger)
	mailer := mail.New(sysCfg.MailConfig, logger)
	purger := cleanup.NewPurger(st.files, st.results, oracleCfg.UnzipRoot, logger)
	stager := archive.NewZipStager(logger)
	copier := filesystem.NewCopier(oracleCfg.LibraryDir, logger)
	runner := executor.NewRunner(oracleCfg.Interpreter, oracleCfg.Timeout, logger)
	// one lock per test shared by runs, uploads and deletes
	runLock := newRunLock(sysCfg, st, logger)

	//services
	ggAuth := auth2.NewGoogleAuthService(st.users, jwtProvider, logger)
	localAuth := auth2.NewLocalAuthService(st.users, jwtProvider, mailer, logger)
	userSvc := user.NewUserService(st.users, st.apps, st.tests, tx, purger, logger)
	appSvc := app.NewAppService(st.apps, st.tests, tx, purger, logger)
	testSvc := test.NewTestService(st.apps, st.tests, st.files, st.results, tx, runLock, purger, logger)
	fileSvc := file.NewFileService(st.tests, st.files, stager, runLock, oracleCfg.UnzipRoot, logger)
	oracleSvc := oracle.NewOracleService(st.tests, st.results, copier, runner, runLock, oracleCfg.UnzipRoot, logger)

	return http2.NewServiceProvider(ggAuth, localAuth, userSvc, appSvc, testSvc, fileSvc, oracleSvc, jwtProvider, healthChecks(st)...)
}
