// Package sqlite implements auth persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
	"github.com/hanulsoft/jantable/internal/platform/storage/sqlitemigrate"
	"github.com/hanulsoft/jantable/internal/services/auth/storage/sqlite/migrations"
	"github.com/hanulsoft/jantable/internal/services/auth/user"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements storage.Store over a single SQLite file.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the auth SQLite store and applies bundled migrations, keeping
// startup and schema evolution in one place.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser persists a new account, rejecting id collisions.
func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO users (id, password_hash, created_at) VALUES (?, ?, ?)",
		u.ID, u.PasswordHash, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return apperrors.New(apperrors.CodeUserExists, "user "+u.ID+" already exists")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "insert user", err)
	}
	return nil
}

// GetUser fetches an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, password_hash, created_at FROM users WHERE id = ?", id,
	)

	var u user.User
	var createdAt int64
	if err := row.Scan(&u.ID, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, apperrors.New(apperrors.CodeUserNotFound, "user "+id+" not found")
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "query user", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

// isConstraintError reports whether err is a primary key collision.
func isConstraintError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}
