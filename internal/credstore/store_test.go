package credstore

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack/internal/db/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate user model: %v", err)
	}

	return New(db)
}

func TestCreate_Validation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name      string
		username  string
		email     string
		password  string
		wantField string
	}{
		{"short username", "al", "alice@example.com", "secret1", "username"},
		{"missing username", "", "alice@example.com", "secret1", "username"},
		{"bad email", "alice", "not-an-email", "secret1", "email"},
		{"short password", "alice", "alice@example.com", "123", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.username, tt.email, tt.password)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			if verr.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q", tt.wantField, verr.Field)
			}
		})
	}
}

func TestCreate_DuplicateIdentifiesField(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create("alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// same email, different username
	_, err := s.Create("bob", "alice@example.com", "secret1")

	var derr *DuplicateKeyError
	if !errors.As(err, &derr) || derr.Field != "email" {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	// same username, different email
	_, err = s.Create("alice", "other@example.com", "secret1")
	if !errors.As(err, &derr) || derr.Field != "username" {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	// original record untouched
	u, err := s.FindByEmail("alice@example.com")
	if err != nil || u.Username != "alice" {
		t.Fatalf("original account changed: user=%v err=%v", u, err)
	}
}

func TestCreate_LostInsertRaceNamesCollidingField(t *testing.T) {
	s := newTestStore(t)

	// a concurrent create can win between the pre-check and the insert; the
	// rejected insert then has to re-read the winning row to name the field
	winner := models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: models.HashPassword("secret1"),
	}
	if err := s.db.Create(&winner).Error; err != nil {
		t.Fatalf("failed to seed winning row: %v", err)
	}

	if got := s.duplicateField("alice"); got != "username" {
		t.Fatalf("username collision reported as %q", got)
	}

	if got := s.duplicateField("bob"); got != "email" {
		t.Fatalf("email collision reported as %q", got)
	}
}

func TestCreate_NormalizesEmail(t *testing.T) {
	s := newTestStore(t)

	u, err := s.Create("alice", "  Alice@Example.COM ", "secret1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if u.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", u.Email)
	}

	if u.PasswordHash == "" || u.PasswordHash == "secret1" {
		t.Fatalf("password must be stored hashed, got %q", u.PasswordHash)
	}
}

func TestVerifyAndSetPassword(t *testing.T) {
	s := newTestStore(t)

	u, err := s.Create("alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if !s.VerifyPassword(u, "secret1") {
		t.Fatal("expected password to verify")
	}

	if s.VerifyPassword(u, "wrong") {
		t.Fatal("wrong password must not verify")
	}

	if err := s.SetPassword(u, "newsecret"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}

	reloaded, err := s.FindByID(u.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if !s.VerifyPassword(reloaded, "newsecret") || s.VerifyPassword(reloaded, "secret1") {
		t.Fatal("password change did not take effect")
	}
}

func TestResetTokenLifecycle(t *testing.T) {
	s := newTestStore(t)

	u, err := s.Create("alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, err := s.IssueResetToken(u)
	if err != nil || first == "" {
		t.Fatalf("issue failed: token=%q err=%v", first, err)
	}

	// a second request invalidates the first token
	second, err := s.IssueResetToken(u)
	if err != nil || second == first {
		t.Fatalf("expected a fresh token, got %q err=%v", second, err)
	}

	if _, err := s.FindByResetToken(first); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("stale token must be invalid, got %v", err)
	}

	found, err := s.FindByResetToken(second)
	if err != nil || found.ID != u.ID {
		t.Fatalf("current token lookup failed: user=%v err=%v", found, err)
	}

	// consuming the token clears it atomically with the password change
	if err := s.SetPassword(found, "newsecret"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}

	if _, err := s.FindByResetToken(second); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("consumed token must fail like an invalid one, got %v", err)
	}
}

func TestFindByResetToken_Expired(t *testing.T) {
	s := newTestStore(t)

	u, err := s.Create("alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	token, err := s.IssueResetToken(u)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// push the expiry into the past
	past := time.Now().Add(-time.Minute)
	if err := s.db.Model(&models.User{}).Where("id = ?", u.ID).
		Update("reset_password_expires", past).Error; err != nil {
		t.Fatalf("failed to age token: %v", err)
	}

	if _, err := s.FindByResetToken(token); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expired token must behave as not found, got %v", err)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.FindByEmail("ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := s.FindByID(42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := s.FindByResetToken(""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("empty token must behave as not found, got %v", err)
	}
}
