package backend

import (
	"context"

	"caixa/internal/amqp"
	"caixa/internal/repo"
)

// Backend is a unified persistence backend: every implementation serves
// the month, plan, and card-spec stores together.
type Backend interface {
	repo.MonthStore
	repo.PlanStore
	repo.CardSpecStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the optional AMQP client
// wired next to it, and an optional cleanup function.
type BackendResult struct {
	Backend Backend
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
