package chat

import (
	"context"

	"github.com/google/uuid"
)

// Service persists chat exchanges and serves per-user history.
type Service struct {
	repo Repository
}

// NewService builds a Service using the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record stores one exchange for the user. Persistence is best-effort from
// the caller's point of view: the reply was already produced.
func (s *Service) Record(ctx context.Context, userID string, callID *string, message, response string) (Exchange, error) {
	return s.repo.Insert(ctx, InsertParams{
		ID:       uuid.NewString(),
		UserID:   userID,
		CallID:   callID,
		Message:  message,
		Response: response,
	})
}

// History returns the user's exchanges, oldest first, optionally narrowed
// to one call. Users only ever see their own history.
func (s *Service) History(ctx context.Context, userID string, callID string) ([]Exchange, error) {
	return s.repo.ListForUser(ctx, userID, callID)
}
