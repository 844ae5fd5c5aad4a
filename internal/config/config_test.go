package config

import "testing"

func validBase() Config {
	return Config{
		App:  AppConfig{Env: "local", Port: 8080},
		Auth: AuthConfig{JWTSecret: "secret"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_Defaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Snapshot.Backend != BackendFile || c.Snapshot.File == "" {
		t.Fatalf("expected file backend default, got %+v", c.Snapshot)
	}
	if c.Notify.Exchange == "" || c.Auth.AccessTokenTTL == 0 {
		t.Fatalf("expected defaults filled")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer, c.Auth.JWTAudience = "iss", "aud"
	c.Snapshot.Backend = BackendPostgres
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "telecom"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	c.Snapshot.Backend = BackendPostgres
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "telecom"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RedisBackendNeedsHost(t *testing.T) {
	c := validBase()
	c.Snapshot.Backend = BackendRedis
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for redis backend without REDIS_HOST")
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown backend":          func(c *Config) { c.Snapshot.Backend = "s3" },
		"autosave without backend": func(c *Config) { c.Snapshot.Backend = BackendNone; c.Snapshot.Schedule = "@every 1m" },
		"bad amqp url":             func(c *Config) { c.Notify.AMQPURL = "http://broker" },
	}
	for name, mutate := range cases {
		c := validBase()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SNAPSHOT_BACKEND", "none")
	t.Setenv("RATES_FILE", "rates.yaml")
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPAddr() != ":9090" || c.Network.RatesFile != "rates.yaml" || c.Snapshot.Backend != BackendNone {
		t.Fatalf("unexpected config %+v", c)
	}
}
