package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
media:
  driver: s3
  url_ttl: 15m
feed:
  batch_size: 20
limits:
  swipes_per_minute: 7
cors:
  allowed_origins:
    - https://app.loveconnect.test
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Media.Driver != "s3" {
		t.Fatalf("unexpected media driver: %s", cfg.Media.Driver)
	}
	if cfg.Media.URLTTL != 15*time.Minute {
		t.Fatalf("unexpected media url ttl: %s", cfg.Media.URLTTL)
	}
	if cfg.Feed.BatchSize != 20 {
		t.Fatalf("unexpected feed batch size: %d", cfg.Feed.BatchSize)
	}
	if cfg.Limits.SwipesPerMinute != 7 {
		t.Fatalf("unexpected swipes/minute: %d", cfg.Limits.SwipesPerMinute)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.loveconnect.test" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}

	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("token ttl default should stay 1h, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Media.MaxUploadBytes != 5<<20 {
		t.Fatalf("max upload default should stay 5MiB, got %d", cfg.Media.MaxUploadBytes)
	}
	if cfg.Limits.SwipesPer10Sec != 30 {
		t.Fatalf("swipes_per_10sec default should stay 30, got %d", cfg.Limits.SwipesPer10Sec)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Auth.BcryptCost != 10 {
		t.Fatalf("unexpected default bcrypt cost: %d", cfg.Auth.BcryptCost)
	}
	if cfg.Feed.BatchSize != 50 {
		t.Fatalf("unexpected default feed batch size: %d", cfg.Feed.BatchSize)
	}
	if cfg.Media.Driver != "local" {
		t.Fatalf("unexpected default media driver: %s", cfg.Media.Driver)
	}
	if !cfg.Limits.Enabled {
		t.Fatalf("limits should be enabled by default")
	}
	if cfg.Cleanup.Interval != 6*time.Hour || cfg.Cleanup.Grace != time.Hour {
		t.Fatalf("unexpected cleanup defaults: %+v", cfg.Cleanup)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("JWT_TOKEN_TTL", "30m")
	t.Setenv("LIMITS_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl: %s", cfg.Auth.TokenTTL)
	}
	if cfg.Limits.Enabled {
		t.Fatalf("limits should be disabled by env override")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsMalformedEnvDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_READ_TIMEOUT", "soon")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when jwt secret is the default in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(""); err != nil {
		t.Fatalf("load config with production secret: %v", err)
	}
}

func TestLoadAcceptsMediaDriverInAnyCase(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("media:\n  driver: \" S3 \"\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Media.Driver != "s3" {
		t.Fatalf("unexpected media driver: got %q want %q", cfg.Media.Driver, "s3")
	}
}

func TestLoadAppliesTenSecondLimitOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LIMITS_LOGIN_PER_10SEC", "2")
	t.Setenv("LIMITS_SWIPES_PER_10SEC", "9")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Limits.LoginPer10Sec != 2 {
		t.Fatalf("unexpected login/10s: got %d want %d", cfg.Limits.LoginPer10Sec, 2)
	}
	if cfg.Limits.SwipesPer10Sec != 9 {
		t.Fatalf("unexpected swipes/10s: got %d want %d", cfg.Limits.SwipesPer10Sec, 9)
	}
}

func TestLoadRejectsUnknownMediaDriver(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MEDIA_DRIVER", "ftp")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown media driver")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"POSTGRES_AUTO_MIGRATE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"MEDIA_DRIVER",
		"MEDIA_LOCAL_DIR",
		"MEDIA_PUBLIC_BASE_URL",
		"MEDIA_MAX_UPLOAD_BYTES",
		"MEDIA_URL_TTL",
		"JWT_SECRET",
		"JWT_TOKEN_TTL",
		"BCRYPT_COST",
		"FEED_BATCH_SIZE",
		"LIMITS_ENABLED",
		"LIMITS_LOGIN_PER_MINUTE",
		"LIMITS_SWIPES_PER_MINUTE",
		"CORS_ALLOWED_ORIGINS",
		"CLEANUP_ENABLED",
		"CLEANUP_INTERVAL",
		"CLEANUP_GRACE",
	} {
		t.Setenv(key, "")
	}
}
