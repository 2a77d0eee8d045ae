package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" || cfg.APIPrefix != "/api" || cfg.StoreDriver != DriverMongo {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Session.RequireFirstSubmitter || cfg.Session.PickGuardTTL != 5*time.Second || cfg.Session.CodeMaxAttempts != 10 {
		t.Errorf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Redis.Addr != "" || cfg.AMQP.URL != "" {
		t.Errorf("optional backends must default to disabled: %+v %+v", cfg.Redis, cfg.AMQP)
	}
	if cfg.AMQP.Exchange != "eatwhat.events" || cfg.AMQP.Workers != 4 {
		t.Errorf("unexpected amqp defaults: %+v", cfg.AMQP)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_DRIVER":                 "postgres",
		"DATABASE_URL":                 "postgres://localhost/eatwhat",
		"CORS_ALLOWED_ORIGINS":         "https://a.example,https://b.example",
		"PICK_REQUIRE_FIRST_SUBMITTER": "true",
		"TOKEN_TTL":                    "1h",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres || cfg.Postgres.URL == "" {
		t.Errorf("postgres not selected: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.Session.RequireFirstSubmitter || cfg.TokenTTL != time.Hour {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"production without secret", map[string]string{"ENV": "production"}},
		{"zero rate", map[string]string{"RATE_LIMIT_RPS": "0"}},
		{"bad duration", map[string]string{"TOKEN_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(tt.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
