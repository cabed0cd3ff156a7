package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected addr: %q", cfg.HTTPAddr)
	}
	if cfg.GPSBaseToleranceM != 5 || cfg.LocationRadiusMin != 5 || cfg.LocationRadiusMax != 500 {
		t.Errorf("unexpected geo defaults: %+v", cfg)
	}
	if cfg.QRTokenMinLen != 4 || cfg.QRTokenMaxLen != 64 {
		t.Errorf("unexpected token bounds: %+v", cfg)
	}
	if cfg.AnswerBypassPhrase != "" {
		t.Error("bypass phrase must default to disabled")
	}
	if !cfg.SeedDemo {
		t.Error("demo seeding should default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("PROFILE_MEDIUM", "10")
	t.Setenv("SEED_DEMO", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("unexpected addr: %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("unexpected log level: %v", cfg.LogLevel)
	}
	if cfg.SeedDemo {
		t.Error("expected demo seeding off")
	}

	profiles := cfg.Profiles()
	if profiles["short"] != 3 || profiles["medium"] != 10 || profiles["long"] != 24 {
		t.Errorf("unexpected profiles: %v", profiles)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Setenv("QR_TOKEN_MIN_LEN", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}
