package config

import (
	"strings"
	"time"
)

type HTTPConfig struct {
	Port        int
	CORSOrigins []string
	// MaxUploadBytes caps the multipart body of a trace upload
	MaxUploadBytes int64
}

func NewHTTPConfig() *HTTPConfig {
	origins := getListEnv("CORS_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return &HTTPConfig{
		Port:        getIntEnv("HTTP_PORT", 8082),
		CORSOrigins: origins,

		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_MB", 512)) << 20,
	}
}

type OracleConfig struct {
	// LibraryDir holds the shared oracle scripts, models and lock files
	LibraryDir string
	// UnzipRoot holds one extracted trace directory per test
	UnzipRoot string
	// Interpreter is the command that runs a script, e.g. "pipenv run python"
	Interpreter []string
	Timeout     time.Duration
}

// without a script deadline a run lock must outlive any realistic run
const unboundedRunLockTTL = 24 * time.Hour

// RunLockTTL is how long a run lock survives a holder that never releases it
func (c *OracleConfig) RunLockTTL() time.Duration {
	if c.Timeout <= 0 {
		return unboundedRunLockTTL
	}
	return c.Timeout + time.Minute
}

func NewOracleConfig() *OracleConfig {
	return &OracleConfig{
		LibraryDir:  getEnv("ORACLE_LIBRARY_DIR", "./oracles"),
		UnzipRoot:   getEnv("UNZIP_ROOT", "./unzipped"),
		Interpreter: strings.Fields(getEnv("ORACLE_INTERPRETER", "pipenv run python")),
		Timeout:     getSecondsEnv("ORACLE_TIMEOUT_SEC", 600),
	}
}

type ReconcileCfg struct {
	Interval time.Duration
	// GracePeriod protects blobs whose test row has not been written yet
	GracePeriod time.Duration
}

func NewReconcileCfg() *ReconcileCfg {
	return &ReconcileCfg{
		Interval:    getSecondsEnv("RECONCILE_INTERVAL_SEC", 3600),
		GracePeriod: getSecondsEnv("RECONCILE_GRACE_SEC", 3600),
	}
}
