// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "SANGBAD_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Check defaults
	if cfg.DBPath != "./data/sangbad.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/sangbad.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.ViewRetentionDays != 90 {
		t.Errorf("ViewRetentionDays = %d, want 90", cfg.ViewRetentionDays)
	}
	if cfg.EventRetentionDays != 180 {
		t.Errorf("EventRetentionDays = %d, want 180", cfg.EventRetentionDays)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "SANGBAD_SESSION_SECRET", customSecret)
	setEnv(t, "SANGBAD_DB_PATH", "/custom/path.db")
	setEnv(t, "SANGBAD_SERVER_HOST", "0.0.0.0")
	setEnv(t, "SANGBAD_SERVER_PORT", "3000")
	setEnv(t, "SANGBAD_ENV", "production")
	setEnv(t, "SANGBAD_LOG_LEVEL", "debug")
	setEnv(t, "SANGBAD_VIEW_RETENTION_DAYS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerHost != "0.0.0.0" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "0.0.0.0")
	}
	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 3000)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want %q", cfg.Env, "production")
	}
	if cfg.ViewRetentionDays != 7 {
		t.Errorf("ViewRetentionDays = %d, want 7", cfg.ViewRetentionDays)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without SANGBAD_SESSION_SECRET")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "SANGBAD_SESSION_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() accepted a short secret")
	}
	if !strings.Contains(err.Error(), "at least 32 bytes") {
		t.Errorf("error = %v, want length complaint", err)
	}
}

func TestLoad_KnownWeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "SANGBAD_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a known default secret")
	}
}

func TestIsDevelopment(t *testing.T) {
	if !(Config{Env: "development"}).IsDevelopment() {
		t.Error("development env not detected")
	}
	if (Config{Env: "production"}).IsDevelopment() {
		t.Error("production env reported as development")
	}
}

func TestServerAddr(t *testing.T) {
	cfg := Config{ServerHost: "127.0.0.1", ServerPort: 9000}
	if got := cfg.ServerAddr(); got != "127.0.0.1:9000" {
		t.Errorf("ServerAddr() = %q", got)
	}
}

func TestUseRedisCache(t *testing.T) {
	if (Config{}).UseRedisCache() {
		t.Error("empty RedisURL reported as enabled")
	}
	if !(Config{RedisURL: "redis://localhost:6379"}).UseRedisCache() {
		t.Error("RedisURL not detected")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	cases := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcABC123!@#abcABC123!@#abcABC12", true},
		{"abcdefgh12345678abcdefgh12345678", false},
		{"Abcdefgh12345678Abcdefgh12345678", true},
	}
	for _, tc := range cases {
		if got := hasMinimumEntropy(tc.secret); got != tc.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tc.secret, got, tc.want)
		}
	}
}
