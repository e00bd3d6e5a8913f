// Package backend selects and wires a storage backend from configuration.
package backend

import (
	"context"

	"khata/internal/amqp"
	"khata/internal/store"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the wired backend, the optional event publisher and a
// cleanup function for shutdown.
type Result struct {
	Backend store.Backend
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP (optional, any backend)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer.
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
