package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.TaskBackend != BackendRedis {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.SessionTTL != time.Hour || cfg.Auth.ResetTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected token lifetimes: %+v", cfg.Auth)
	}
	if cfg.Mongo.Database != "taskflow" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected store defaults: %+v %+v", cfg.Mongo, cfg.Redis)
	}
	if cfg.SMTP.Host != "" || cfg.SMTP.Port != 587 {
		t.Fatalf("unexpected smtp defaults: %+v", cfg.SMTP)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":    "secret",
		"ENV":           "production",
		"TASK_BACKEND":  "memory",
		"SESSION_TTL":   "30m",
		"AUDIT_WORKERS": "2",
		"SMTP_HOST":     "smtp.example.com",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsProduction() || cfg.TaskBackend != BackendMemory || cfg.AuditWorkers != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Auth.SessionTTL != 30*time.Minute || cfg.SMTP.Host != "smtp.example.com" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {},
		"bad backend":    {"JWT_SECRET": "s", "TASK_BACKEND": "postgres"},
		"zero ttl":       {"JWT_SECRET": "s", "SESSION_TTL": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"TASK_BACKEND": "x"}))
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") || !strings.Contains(err.Error(), "TASK_BACKEND") {
		t.Fatalf("expected every problem reported, got %v", err)
	}
}
