// Package user models registered accounts and their password credentials.
package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

// bcryptCost matches the work factor the legacy service registered users with.
const bcryptCost = 10

// User is a registered account.
type User struct {
	ID           string
	PasswordHash string
	CreatedAt    time.Time
}

// New validates the id/password pair and returns a user with a hashed
// credential.
func New(id, password string, now func() time.Time) (User, error) {
	if now == nil {
		now = time.Now
	}
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		return User{}, apperrors.New(apperrors.CodeMissingField, "id and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}
	return User{
		ID:           id,
		PasswordHash: string(hash),
		CreatedAt:    now().UTC(),
	}, nil
}

// Authenticate compares password against the stored hash.
func (u User) Authenticate(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return apperrors.New(apperrors.CodeInvalidPassword, "password does not match")
	}
	return nil
}
