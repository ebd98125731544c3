package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// seedAccount describes one bootstrap user created on first startup.
type seedAccount struct {
	Username string
	Password string
	Role     Role
	RepName  string
}

// defaultAccounts are the product's bootstrap logins: two reps and one
// manager. They only exist so a fresh deployment is usable before any real
// user provisioning happens.
var defaultAccounts = []seedAccount{
	{Username: "jane.doe", Password: "password123", Role: RoleRep, RepName: "Jane Doe"},
	{Username: "john.smith", Password: "password123", Role: RoleRep, RepName: "John Smith"},
	{Username: "manager", Password: "admin123", Role: RoleManager, RepName: "Sales Manager"},
}

// SeedDefaultUsers creates the bootstrap accounts when the users table is
// empty. It is a no-op on every later startup; users are immutable within
// this system once created.
func SeedDefaultUsers(ctx context.Context, repo Repository) (int, error) {
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for _, acct := range defaultAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, fmt.Errorf("auth: hash seed password: %w", err)
		}

		_, err = repo.CreateUser(ctx, CreateUserParams{
			ID:           uuid.NewString(),
			Username:     acct.Username,
			PasswordHash: string(hash),
			Role:         acct.Role,
			RepName:      acct.RepName,
		})
		if err != nil {
			// Another instance may have seeded concurrently.
			if errors.Is(err, ErrDuplicateUsername) {
				continue
			}
			return created, err
		}
		created++
	}

	return created, nil
}
