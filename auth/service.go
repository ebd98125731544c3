package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong username or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthorized signals a missing, malformed, tampered or expired token.
	ErrUnauthorized = errors.New("auth: unauthorized")
)

// DefaultTokenTTL is the issued-token lifetime used when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Service handles authentication business logic: credential verification,
// token issuance and token verification.
type Service struct {
	repo      Repository
	jwtSecret []byte
	method    jwt.SigningMethod
	ttl       time.Duration
	now       func() time.Time
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// Option customizes Service construction.
type Option func(*Service)

// WithTokenTTL overrides the issued-token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSigningAlgorithm selects the HMAC signing algorithm by name
// (HS256, HS384 or HS512). Unknown names are ignored and HS256 kept.
func WithSigningAlgorithm(name string) Option {
	return func(s *Service) {
		if m := jwt.GetSigningMethod(name); m != nil {
			if _, ok := m.(*jwt.SigningMethodHMAC); ok {
				s.method = m
			}
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		method:    jwt.SigningMethodHS256,
		ttl:       DefaultTokenTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the credentials and returns a signed bearer token along
// with the user. Unknown usernames and wrong passwords are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	// bcrypt comparison is constant-time and the hash carries its own salt.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.Username, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token: token,
		User:  user,
	}, nil
}

// Authenticate verifies a bearer token and resolves it to the current user.
// Verification is stateless apart from the credential-store lookup.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return User{}, fmt.Errorf("%w: parse token: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return User{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return User{}, fmt.Errorf("%w: missing subject claim", ErrUnauthorized)
	}

	user, err := s.repo.GetUserByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, fmt.Errorf("%w: unknown subject", ErrUnauthorized)
		}
		return User{}, err
	}

	return user, nil
}

// ListReps returns every user holding the rep role.
func (s *Service) ListReps(ctx context.Context) ([]User, error) {
	return s.repo.ListByRole(ctx, RoleRep)
}

// generateToken creates a signed JWT for the user.
func (s *Service) generateToken(username string, role Role) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  username,
		"role": role,
		"exp":  now.Add(s.ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.jwtSecret)
}
