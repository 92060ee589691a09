// Package credstore owns user records and everything touching their
// passwords: creation, lookups, verification and the reset token lifecycle.
// Password hashing never leaks above this package.
package credstore

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack/internal/db/models"
)

const resetTokenValidity = time.Hour

// registration carries the validated input for Create.
type registration struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Store persists user records on a gorm handle.
type Store struct {
	db       *gorm.DB
	validate *validator.Validate
}

// New creates a credential store.
func New(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		validate: validator.New(),
	}
}

// Create validates the input and inserts a new user with a hashed password.
// Returns a ValidationError naming the offending field, or a
// DuplicateKeyError naming the unique field that is already taken. The
// database unique indexes arbitrate concurrent creates: one insert wins,
// the loser surfaces as a DuplicateKeyError.
func (s *Store) Create(username, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	input := registration{Username: username, Email: email, Password: password}
	if err := s.validate.Struct(input); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return nil, &ValidationError{
				Field:   strings.ToLower(fields[0].Field()),
				Message: validationMessage(fields[0]),
			}
		}

		return nil, err
	}

	// identify which field collides before inserting
	var existing models.User

	err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		field := "email"
		if existing.Username == username {
			field = "username"
		}

		return nil, &DuplicateKeyError{Field: field}
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: models.HashPassword(password),
	}

	if err := s.db.Create(&user).Error; err != nil {
		// lost the race against a concurrent create on the same key
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &DuplicateKeyError{Field: s.duplicateField(username)}
		}

		return nil, err
	}

	return &user, nil
}

// duplicateField re-reads the winning row after a rejected insert to name
// the unique field it collided on.
func (s *Store) duplicateField(username string) string {
	var winner models.User
	if err := s.db.Where("username = ?", username).First(&winner).Error; err == nil {
		return "username"
	}

	return "email"
}

// FindByEmail retrieves a user by their lowercased email address.
func (s *Store) FindByEmail(email string) (*models.User, error) {
	var user models.User

	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByID retrieves a user by ID.
func (s *Store) FindByID(id uint64) (*models.User, error) {
	var user models.User

	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByResetToken retrieves the user holding the given reset token.
// An expired token behaves exactly like an unknown one.
func (s *Store) FindByResetToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	var user models.User

	err := s.db.Where("reset_password_token = ?", token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	if user.ResetPasswordExpires == nil || !user.ResetPasswordExpires.After(time.Now()) {
		return nil, ErrUserNotFound
	}

	return &user, nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Store) VerifyPassword(user *models.User, password string) bool {
	return user.VerifyPassword(password)
}

// SetPassword replaces the user's password hash and clears any open reset
// token in the same write, so a consumed token can never be replayed.
func (s *Store) SetPassword(user *models.User, password string) error {
	hash := models.HashPassword(password)

	err := s.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password_hash":          hash,
			"reset_password_token":   "",
			"reset_password_expires": nil,
		}).Error
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil

	return nil
}

// IssueResetToken stores a fresh recovery token valid for one hour and
// returns it. Any previously issued token is overwritten and thereby
// invalidated (last write wins, concurrent requests are not merged).
func (s *Store) IssueResetToken(user *models.User) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(resetTokenValidity)

	err = s.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"reset_password_token":   token,
			"reset_password_expires": expires,
		}).Error
	if err != nil {
		return "", err
	}

	user.ResetPasswordToken = token
	user.ResetPasswordExpires = &expires

	return token, nil
}

// generateToken returns a new opaque random hex token.
func generateToken() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// validationMessage maps a validator field error to a user facing message.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters long"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
