package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 || cfg.Presence.SweepEvery != 5*time.Second {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
port: 9090
jwt_secret: s3cret
presence:
  sweep_every: 10s
mongo:
  database: linkup_test
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Port)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("jwt secret = %q", cfg.JWTSecret)
	}
	if cfg.Presence.SweepEvery != 10*time.Second {
		t.Fatalf("sweep every = %v, want 10s", cfg.Presence.SweepEvery)
	}
	// Untouched keys keep their defaults.
	if cfg.Mongo.Database != "linkup_test" || cfg.Mongo.Uri != "mongodb://localhost:27017" {
		t.Fatalf("mongo = %+v", cfg.Mongo)
	}
	if cfg.Presence.InactiveAfter != 2*time.Minute {
		t.Fatalf("inactive after = %v, want default 2m", cfg.Presence.InactiveAfter)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("missing file should error")
	}
}
