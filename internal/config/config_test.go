package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDetectorConfigDefaults(t *testing.T) {
	for _, k := range []string{"DETECTOR_PIXEL_THRESHOLD", "DETECTOR_BLOCK_SIZE", "DETECTOR_FPS", "VIDEO_PATH"} {
		t.Setenv(k, "")
	}
	cfg := LoadDetectorConfig()
	if cfg.PixelThreshold != 900 || cfg.BlockSize != 25 || cfg.FPS != 30 || cfg.VideoPath != "carPark.mp4" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadDetectorConfigOverrides(t *testing.T) {
	t.Setenv("DETECTOR_PIXEL_THRESHOLD", "1200")
	t.Setenv("DETECTOR_ENABLED", "false")
	t.Setenv("DETECTOR_FPS", "not-a-number")
	cfg := LoadDetectorConfig()
	if cfg.PixelThreshold != 1200 || cfg.Enabled || cfg.FPS != 30 {
		t.Fatalf("overrides: %+v", cfg)
	}
}

func TestLoadJobConfig(t *testing.T) {
	t.Setenv("JOB_STATS_INTERVAL", "90s")
	t.Setenv("BOOKING_GRACE_PERIOD", "")
	cfg := LoadJobConfig()
	if cfg.StatsInterval != 90*time.Second || cfg.GracePeriod != 10*time.Minute {
		t.Fatalf("job config: %+v", cfg)
	}
}

func TestLoadDatabaseConfigSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "")
	cfg := LoadDatabaseConfig()
	if cfg.Driver != "sqlite3" || cfg.Path != "parkease.db" {
		t.Fatalf("sqlite config: %+v", cfg)
	}
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.TTL != 10*time.Second {
		t.Fatalf("clamped: %+v", cfg)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("PARKEASE_TEST_A=file\nPARKEASE_TEST_B=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PARKEASE_TEST_A", "env")
	os.Unsetenv("PARKEASE_TEST_B")
	t.Cleanup(func() { os.Unsetenv("PARKEASE_TEST_B") })

	LoadDotEnv(p, filepath.Join(dir, "missing.env"))
	if got := os.Getenv("PARKEASE_TEST_A"); got != "env" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("PARKEASE_TEST_B"); got != "file" {
		t.Fatalf("B = %q", got)
	}
}

func TestLoadJobConfigZone(t *testing.T) {
	t.Setenv("APP_TZ", "UTC")
	if loc := LoadJobConfig().Location; loc != time.UTC {
		t.Fatalf("APP_TZ=UTC: %v", loc)
	}
	t.Setenv("APP_TZ", "Not/AZone")
	if loc := LoadJobConfig().Location; loc != time.Local {
		t.Fatalf("unknown zone: %v, want Local", loc)
	}
	t.Setenv("APP_TZ", "")
	if loc := LoadJobConfig().Location; loc != time.Local {
		t.Fatalf("unset: %v, want Local", loc)
	}
}
