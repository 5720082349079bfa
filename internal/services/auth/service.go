package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mcoot/pokerstats/internal/dependencies/clock"
	"github.com/mcoot/pokerstats/internal/model"
)

// Errors
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrNotConfigured = errors.New("token verification is not configured")
)

// Roles carried in the "role" claim
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the verified caller behind a request
type Identity struct {
	UserID    model.UserID
	Email     string
	Role      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller may run catalog maintenance
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Config holds configuration for the auth service
type Config struct {
	// Secret is the HS256 key shared with the identity provider
	Secret string

	// Issuer and Audience are checked when set
	Issuer   string
	Audience string

	// Leeway tolerates clock skew with the identity provider
	Leeway time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		Leeway: 30 * time.Second,
	}
}

// Service verifies bearer tokens issued by the external identity provider.
// Sessions, sign-up and passwords live with the provider.
type Service struct {
	clock clock.Clock
	cfg   Config
}

// New creates a new auth Service
func New(clock clock.Clock, cfg Config) *Service {
	return &Service{
		clock: clock,
		cfg:   cfg,
	}
}

// ValidateToken verifies a token and returns the caller's identity
func (s *Service) ValidateToken(tokenString string) (*Identity, error) {
	if s.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithLeeway(s.cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		UserID: model.UserID(c.Subject),
		Email:  c.Email,
		Role:   c.Role,
	}
	if identity.Role == "" {
		identity.Role = RoleUser
	}
	if c.ExpiresAt != nil {
		identity.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return identity, nil
}

// IssueToken signs a token the way the identity provider does. Used for
// local development and tests.
func (s *Service) IssueToken(userID model.UserID, role string, ttl time.Duration) (string, error) {
	if s.cfg.Secret == "" {
		return "", ErrNotConfigured
	}

	now := s.clock.Now()
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   string(userID),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	if s.cfg.Audience != "" {
		c.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
