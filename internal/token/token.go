// Package token issues and verifies the stateless JWT pair backing a
// session: a short lived access token and a longer lived refresh token.
// There is no server side revocation; compromise recovery is rotating the
// signing secrets in the configuration.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects which signing secret and lifetime a token uses.
type Kind int

const (
	// Access tokens prove identity for a single request window.
	Access Kind = iota
	// Refresh tokens are used solely to mint new access tokens.
	Refresh
)

var (
	// ErrTokenInvalid is returned for a malformed token, a bad signature,
	// or a token of the wrong kind (signed with the other secret).
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when the validity window has elapsed.
	ErrTokenExpired = errors.New("token expired")
)

// Service signs and verifies tokens. The two secrets must differ so a
// refresh token can never pass verification as an access token.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// New creates a token service. Zero TTLs fall back to the documented
// defaults of 15 minutes and 7 days.
func New(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}

	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the access token lifetime, used for the cookie max age.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime, used for the cookie max age.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs a new access token for the given user.
func (s *Service) IssueAccess(userID uint64) (string, error) {
	return s.issue(userID, s.accessSecret, s.accessTTL)
}

// IssueRefresh signs a new refresh token for the given user.
func (s *Service) IssueRefresh(userID uint64) (string, error) {
	return s.issue(userID, s.refreshSecret, s.refreshTTL)
}

func (s *Service) issue(userID uint64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks signature and expiry of a token of the given kind and
// returns the embedded user id. Expired tokens yield ErrTokenExpired,
// everything else wrong yields ErrTokenInvalid.
func (s *Service) Verify(tokenString string, kind Kind) (uint64, error) {
	secret := s.accessSecret
	if kind == Refresh {
		secret = s.refreshSecret
	}

	claims := new(jwt.RegisteredClaims)

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}

		return 0, ErrTokenInvalid
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}

	return userID, nil
}
