package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User represents a registered account.
//
// ResetPasswordToken and ResetPasswordExpires are either both set (a reset
// was requested and is still open) or both cleared. Consuming a token clears
// them in the same write as the password change.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Username is the unique public name, at least 3 characters.
	Username string `gorm:"unique;size:100;not null" json:"username"`
	// Email is the unique, lowercased address used for login and recovery.
	Email string `gorm:"unique;size:255;not null" json:"email"`
	// PasswordHash is the Argon2id hash of the password. It never leaves the
	// process: the json tag strips it from every response body.
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	// ResetPasswordToken is the open password recovery token, if any.
	ResetPasswordToken string `gorm:"size:64;index" json:"-"`
	// ResetPasswordExpires is the recovery token deadline, if any.
	ResetPasswordExpires *time.Time `json:"-"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
