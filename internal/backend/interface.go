package backend

import (
	"context"

	"finsheets/internal/sheets"
	"finsheets/internal/storage"
)

// Backend is the persistence collaborator behind the REST surface.
type Backend interface {
	sheets.Store
	sheets.Pinger
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// RepositoryOpener connects a SQL repository for one backend type.
type RepositoryOpener func(config Config) (*storage.Repository, error)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQL backends
	DatabaseURL       string
	DatabaseAuthToken string

	// Change events; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	LibSQLBackend BackendType = "libsql"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, LibSQLBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
