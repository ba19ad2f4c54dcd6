// Package storage defines the persistence contract for auth state.
package storage

import (
	"context"

	"github.com/hanulsoft/jantable/internal/services/auth/user"
)

// Store persists registered users.
//
// Implementations report collisions as CodeUserExists and missing accounts as
// CodeUserNotFound so callers can map outcomes without driver knowledge.
type Store interface {
	// CreateUser persists a new account.
	CreateUser(ctx context.Context, u user.User) error
	// GetUser fetches an account by id.
	GetUser(ctx context.Context, id string) (user.User, error)
	// Close releases the underlying storage handle.
	Close() error
}
