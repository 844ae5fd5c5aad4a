package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	got := PostgresPoolConfig{MaxOpenConns: 5}.withDefaults()
	if got.MaxOpenConns != 5 {
		t.Fatalf("explicit value must be kept, got %d", got.MaxOpenConns)
	}
	if got.MaxIdleConns != 2 || got.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults %+v", got)
	}
	if got := (PostgresPoolConfig{MaxOpenConns: 1}).withDefaults(); got.MaxIdleConns != 1 {
		t.Fatalf("idle conns must not exceed open conns, got %d", got.MaxIdleConns)
	}
}

func TestRedisConfig_Defaults(t *testing.T) {
	got := RedisConfig{Addr: "localhost:6379", MinIdleConns: -1}.withDefaults()
	if got.MinIdleConns != 0 || got.PoolSize != 20 || got.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults %+v", got)
	}
}
