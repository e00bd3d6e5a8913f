package backend

import (
	"context"
	"path/filepath"
	"testing"

	"khata/internal/config"
)

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range []BackendType{SQLiteBackend, SheetsBackend, MemoryBackend} {
		if !bt.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", bt)
		}
	}
	if BackendType("redis").IsValid() {
		t.Error("IsValid(redis) = true, want false")
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "./test.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "x",
		AMQPQueue:    "q",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "./test.db" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "nope"}); err == nil {
		t.Error("FromAppConfig(invalid) = nil error, want error")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) = nil error, want error")
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	f := NewFactory(nil)
	result, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend(memory) error = %v", err)
	}
	if result.Backend == nil {
		t.Fatal("CreateBackend(memory) returned nil backend")
	}
	// Memory backends are set up eagerly, so reads work immediately.
	if _, err := result.Backend.ListTransactions(context.Background()); err != nil {
		t.Errorf("ListTransactions() error = %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(nil)
	result, err := f.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "khata.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend(sqlite) error = %v", err)
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()
	if result.Backend == nil {
		t.Fatal("CreateBackend(sqlite) returned nil backend")
	}
	if result.Events != nil {
		t.Error("Events should be nil without AMQP_URL")
	}
}

func TestCreateBackendInvalidType(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: "nope"}); err == nil {
		t.Error("CreateBackend(nope) = nil error, want error")
	}
}
