package config

import (
	"os"
	"testing"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("TRUELAYER_CLIENT_ID", "test-client-id")
	t.Setenv("TRUELAYER_CLIENT_SECRET", "test-client-secret")
}

func TestLoad_Success(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TrueLayer.ClientID != "test-client-id" {
		t.Errorf("TrueLayer.ClientID = %q, want %q", cfg.TrueLayer.ClientID, "test-client-id")
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}
	if cfg.TrueLayer.AuthBaseURL != "https://auth.truelayer.com" {
		t.Errorf("TrueLayer.AuthBaseURL = %q, want default", cfg.TrueLayer.AuthBaseURL)
	}
}

func TestLoad_MissingProviderCredentials(t *testing.T) {
	t.Setenv("TRUELAYER_CLIENT_ID", "")
	os.Unsetenv("TRUELAYER_CLIENT_ID")
	t.Setenv("TRUELAYER_CLIENT_SECRET", "secret")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing TRUELAYER_CLIENT_ID, got nil")
	}
}

func TestLoad_InvalidEncryptionKeyLength(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ENCRYPTION_KEY", "too-short")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for invalid ENCRYPTION_KEY length, got nil")
	}
}

func TestLoad_EncryptionKeyOptional(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ENCRYPTION_KEY", "")
	os.Unsetenv("ENCRYPTION_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed without ENCRYPTION_KEY: %v", err)
	}
	if cfg.Encryption.KeyFile == "" {
		t.Error("Encryption.KeyFile should default when ENCRYPTION_KEY is unset")
	}
}

func TestLoad_SchedulerConfiguration(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SCHEDULER_TIMES", "07:30,19:30")
	t.Setenv("SCHEDULER_WORKERS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Scheduler.ScheduleTimes) != 2 {
		t.Errorf("Scheduler.ScheduleTimes = %v, want 2 entries", cfg.Scheduler.ScheduleTimes)
	}
	if cfg.Scheduler.WorkerCount != 3 {
		t.Errorf("Scheduler.WorkerCount = %d, want 3", cfg.Scheduler.WorkerCount)
	}
}

func TestLoad_InvalidSchedulerWorkers(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SCHEDULER_WORKERS", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for invalid SCHEDULER_WORKERS, got nil")
	}
}

func TestConnectionString(t *testing.T) {
	dbCfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "secret",
		DBName:   "budgie",
		SSLMode:  "require",
	}

	got := dbCfg.ConnectionString()
	want := "host=db.internal port=5433 user=app password=secret dbname=budgie sslmode=require"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
