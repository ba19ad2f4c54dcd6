package user

import (
	"testing"
	"time"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

func TestNewHashesPassword(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	u, err := New(" alice ", "hunter2", now)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if u.ID != "alice" {
		t.Fatalf("expected trimmed id, got %q", u.ID)
	}
	if u.PasswordHash == "hunter2" || u.PasswordHash == "" {
		t.Fatal("expected password stored as a hash")
	}
	if !u.CreatedAt.Equal(now()) {
		t.Fatalf("expected fixed creation time, got %v", u.CreatedAt)
	}

	if err := u.Authenticate("hunter2"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := u.Authenticate("wrong"); apperrors.CodeOf(err) != apperrors.CodeInvalidPassword {
		t.Fatalf("expected invalid password, got %v", err)
	}
}

func TestNewRequiresIDAndPassword(t *testing.T) {
	if _, err := New("", "pw", nil); apperrors.CodeOf(err) != apperrors.CodeMissingField {
		t.Fatalf("expected missing field for blank id, got %v", err)
	}
	if _, err := New("alice", "", nil); apperrors.CodeOf(err) != apperrors.CodeMissingField {
		t.Fatalf("expected missing field for blank password, got %v", err)
	}
}
