package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestService_LoginAndAuthenticate(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	user := mustSeedUser(t, repo, "jane.doe", "password123", RoleRep, "Jane Doe")

	ctx := context.Background()
	result, err := svc.Login(ctx, LoginRequest{Username: "jane.doe", Password: "password123"})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if result.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if result.User.ID != user.ID {
		t.Fatalf("login: expected user id %q got %q", user.ID, result.User.ID)
	}
	if result.User.Role != RoleRep {
		t.Fatalf("login: expected role %s got %s", RoleRep, result.User.Role)
	}

	authed, err := svc.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.Username != "jane.doe" {
		t.Fatalf("authenticate: expected username jane.doe got %q", authed.Username)
	}
	if authed.Role != RoleRep {
		t.Fatalf("authenticate: expected role %s got %s", RoleRep, authed.Role)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	mustSeedUser(t, repo, "jane.doe", "password123", RoleRep, "Jane Doe")

	ctx := context.Background()

	if _, err := svc.Login(ctx, LoginRequest{Username: "unknown", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Username: "jane.doe", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_AuthenticateTamperedToken(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	mustSeedUser(t, repo, "jane.doe", "password123", RoleRep, "Jane Doe")

	ctx := context.Background()
	result, err := svc.Login(ctx, LoginRequest{Username: "jane.doe", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(result.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := strings.Join([]string{parts[0], parts[1], string(sig)}, ".")

	if _, err := svc.Authenticate(ctx, tampered); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}

	// A token signed with a different secret must also be rejected.
	other := NewService(repo, "other-secret")
	otherResult, err := other.Login(ctx, LoginRequest{Username: "jane.doe", Password: "password123"})
	if err != nil {
		t.Fatalf("login against other service: %v", err)
	}
	if _, err := svc.Authenticate(ctx, otherResult.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign signature, got %v", err)
	}
}

func TestService_AuthenticateExpiredToken(t *testing.T) {
	repo := newFakeRepository()
	mustSeedUser(t, repo, "jane.doe", "password123", RoleRep, "Jane Doe")

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	svc := NewService(repo, "test-secret", WithTokenTTL(time.Hour), WithClock(clock))

	ctx := context.Background()
	result, err := svc.Login(ctx, LoginRequest{Username: "jane.doe", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Still valid just before expiry.
	current = current.Add(59 * time.Minute)
	if _, err := svc.Authenticate(ctx, result.Token); err != nil {
		t.Fatalf("expected token accepted before expiry, got %v", err)
	}

	// Rejected after expiry.
	current = current.Add(2 * time.Minute)
	if _, err := svc.Authenticate(ctx, result.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after expiry, got %v", err)
	}
}

func TestService_AuthenticateUnknownSubject(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	mustSeedUser(t, repo, "jane.doe", "password123", RoleRep, "Jane Doe")

	ctx := context.Background()
	result, err := svc.Login(ctx, LoginRequest{Username: "jane.doe", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	delete(repo.usersByUsername, "jane.doe")

	if _, err := svc.Authenticate(ctx, result.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for deleted subject, got %v", err)
	}
}

func TestService_SigningAlgorithmOption(t *testing.T) {
	repo := newFakeRepository()
	mustSeedUser(t, repo, "jane.doe", "password123", RoleRep, "Jane Doe")

	svc := NewService(repo, "test-secret", WithSigningAlgorithm("HS512"))

	ctx := context.Background()
	result, err := svc.Login(ctx, LoginRequest{Username: "jane.doe", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Authenticate(ctx, result.Token); err != nil {
		t.Fatalf("authenticate HS512 token: %v", err)
	}
}

func TestSeedDefaultUsers(t *testing.T) {
	repo := newFakeRepository()
	ctx := context.Background()

	created, err := SeedDefaultUsers(ctx, repo)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if created != 3 {
		t.Fatalf("expected 3 seeded users, got %d", created)
	}

	manager, err := repo.GetUserByUsername(ctx, "manager")
	if err != nil {
		t.Fatalf("get manager: %v", err)
	}
	if manager.Role != RoleManager {
		t.Fatalf("expected manager role, got %s", manager.Role)
	}

	// Second run is a no-op.
	created, err = SeedDefaultUsers(ctx, repo)
	if err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected 0 users on re-seed, got %d", created)
	}
}

func mustSeedUser(t *testing.T, repo *fakeRepository, username, password string, role Role, repName string) User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user, err := repo.CreateUser(context.Background(), CreateUserParams{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		RepName:      repName,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

type fakeRepository struct {
	usersByUsername map[string]User
	usersByID       map[string]User
	nextID          int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		usersByUsername: make(map[string]User),
		usersByID:       make(map[string]User),
		nextID:          1,
	}
}

func (f *fakeRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if _, exists := f.usersByUsername[params.Username]; exists {
		return User{}, ErrDuplicateUsername
	}

	id := params.ID
	if id == "" {
		id = fmt.Sprintf("user-%d", f.nextID)
		f.nextID++
	}

	user := User{
		ID:           id,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		RepName:      params.RepName,
		CreatedAt:    time.Now().UTC(),
	}

	f.usersByUsername[user.Username] = user
	f.usersByID[user.ID] = user

	return user, nil
}

func (f *fakeRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	user, ok := f.usersByUsername[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	var users []User
	for _, u := range f.usersByID {
		if u.Role == role {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeRepository) CountUsers(ctx context.Context) (int, error) {
	return len(f.usersByID), nil
}
