package backend

import (
	"context"

	"salesboard/internal/sales"
	"salesboard/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is an opened store plus the optional event publisher.
type BackendResult struct {
	Store     sales.Store
	// Publisher is nil when events are disabled or the broker was unreachable.
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	MySQLDSN     string
	PostgresDSN  string
	MongoURI     string
	MongoDBName  string

	// Events are optional for every backend
	AMQPURL           string
	AMQPExchange      string
	AMQPRoutingPrefix string
	AMQPDialAttempts  int
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	MySQLBackend    BackendType = "mysql"
	PostgresBackend BackendType = "postgres"
	MongoDBBackend  BackendType = "mongodb"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, MySQLBackend, PostgresBackend, MongoDBBackend:
		return true
	default:
		return false
	}
}
