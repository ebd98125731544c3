package call

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"callreview/auth"
)

// ErrForbidden signals a role or ownership violation.
var ErrForbidden = errors.New("call: forbidden")

// Service exposes the role-scoped record-store operations. Every read goes
// through the scope policy for the caller's role; ingestion is the one
// deliberately unauthenticated write (trusted push from the automation
// workflow).
type Service struct {
	repo Repository
}

// NewService builds a Service using the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Ingest stores a webhook payload as a new record with a fresh id. The
// creation timestamp is assigned server-side.
func (s *Service) Ingest(ctx context.Context, params IngestParams) (CallAnalysis, error) {
	if params.CallID == "" {
		return CallAnalysis{}, fmt.Errorf("call: missing call_id")
	}
	if params.RepID == "" {
		return CallAnalysis{}, fmt.Errorf("call: missing rep_id")
	}

	return s.repo.Insert(ctx, InsertParams{
		ID:            uuid.NewString(),
		CallID:        params.CallID,
		RepID:         params.RepID,
		RepName:       params.RepName,
		CallTitle:     params.CallTitle,
		CallDate:      params.CallDate,
		TranscriptURL: params.TranscriptURL,
		Analysis:      params.Analysis,
	})
}

// List returns records visible to the identity, newest call date first.
// Reps are always pinned to their own records no matter what filter they
// request; managers may narrow by rep or see everything.
func (s *Service) List(ctx context.Context, identity auth.User, repFilter string, limit, skip int) ([]CallAnalysis, error) {
	policy, ok := scopeFor(identity)
	if !ok {
		return nil, ErrForbidden
	}

	return s.repo.List(ctx, Filters{
		RepID: policy.listFilter(identity, repFilter),
		Limit: limit,
		Skip:  skip,
	})
}

// Get fetches one record, enforcing the same visibility rule as List.
func (s *Service) Get(ctx context.Context, identity auth.User, id string) (CallAnalysis, error) {
	policy, ok := scopeFor(identity)
	if !ok {
		return CallAnalysis{}, ErrForbidden
	}

	// A malformed id cannot match the uuid primary key; it reads as a
	// missing record, not a storage failure.
	if _, err := uuid.Parse(id); err != nil {
		return CallAnalysis{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return CallAnalysis{}, err
	}

	if !policy.canView(identity, record) {
		return CallAnalysis{}, ErrForbidden
	}

	return record, nil
}
