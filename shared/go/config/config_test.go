package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/earplugs")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Import.MaxAttempts != 3 {
		t.Errorf("Import.MaxAttempts = %d, want 3", cfg.Import.MaxAttempts)
	}
	if cfg.Import.RetryBackoff != 100*time.Millisecond {
		t.Errorf("Import.RetryBackoff = %v, want 100ms", cfg.Import.RetryBackoff)
	}
	if cfg.SetlistFM.RequestsPerSecond != 2 {
		t.Errorf("SetlistFM.RequestsPerSecond = %v, want 2", cfg.SetlistFM.RequestsPerSecond)
	}
	if cfg.Security.TokenTTL != 12*time.Hour {
		t.Errorf("Security.TokenTTL = %v, want 12h", cfg.Security.TokenTTL)
	}
	if cfg.Database.MaxOpenConns != 10 || cfg.Database.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d, want 10/5", cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime != 30*time.Minute || cfg.Database.ConnectTimeout != 30*time.Second {
		t.Errorf("lifetime/timeout = %v/%v, want 30m/30s", cfg.Database.ConnMaxLifetime, cfg.Database.ConnectTimeout)
	}
}

func TestLoadPoolSettings(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "custom", env: map[string]string{"DB_MAX_OPEN_CONNS": "20", "DB_MAX_IDLE_CONNS": "20", "DB_CONNECT_TIMEOUT": "5s"}},
		{name: "not a number", env: map[string]string{"DB_MAX_OPEN_CONNS": "many"}, wantErr: "invalid DB_MAX_OPEN_CONNS"},
		{name: "bad duration", env: map[string]string{"DB_CONN_MAX_LIFETIME": "forever"}, wantErr: "invalid DB_CONN_MAX_LIFETIME"},
		{name: "idle above open", env: map[string]string{"DB_MAX_OPEN_CONNS": "2", "DB_MAX_IDLE_CONNS": "3"}, wantErr: "DB_MAX_IDLE_CONNS must be between"},
		{name: "zero open", env: map[string]string{"DB_MAX_OPEN_CONNS": "0", "DB_MAX_IDLE_CONNS": "0"}, wantErr: "DB_MAX_OPEN_CONNS must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadTool()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadTool() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadTool() error = %v", err)
			}
			if cfg.Database.MaxOpenConns != 20 || cfg.Database.MaxIdleConns != 20 || cfg.Database.ConnectTimeout != 5*time.Second {
				t.Errorf("Database = %+v", cfg.Database)
			}
		})
	}
}

func TestLoadBuildsDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "earplugs")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "concerts")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := "postgresql://earplugs:secret@db:5432/concerts?sslmode=disable"
	if cfg.Database.URL != want {
		t.Errorf("Database.URL = %q, want %q", cfg.Database.URL, want)
	}
}

func TestLoadCollectsProblems(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("ADMIN_USERNAME", "owner")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error, got nil")
	}

	for _, want := range []string{"DATABASE_URL", "JWT_SECRET must be at least 16", "LOG_LEVEL", "ADMIN_USERNAME"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestLoadToolSkipsServerSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/earplugs")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadTool(); err != nil {
		t.Fatalf("LoadTool() error = %v", err)
	}
}
