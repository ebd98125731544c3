package test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"callreview/analytics"
	"callreview/auth"
	"callreview/call"
	"callreview/chat"
	"callreview/db"
	"callreview/migrations"
	"callreview/test/infra"
)

// TestRoleScoping_Integration runs the full repository + service stack
// against a real PostgreSQL, covering seeding, concurrent ingestion and
// the rep/manager visibility rules.
func TestRoleScoping_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	dsn := os.Getenv("INTEGRATION_PG_DSN")
	if dsn == "" && !dockerAvailable(ctx) {
		t.Skip("no INTEGRATION_PG_DSN and no Docker; skipping")
	}

	pgC, dsn, err := infra.StartPostgres16(ctx, dsn)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel2()
		_ = pgC.Terminate(ctx2)
	})

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.Files); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	authRepo := auth.NewRepository(pool)
	if _, err := auth.SeedDefaultUsers(ctx, authRepo); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	rep1, err := authRepo.GetUserByUsername(ctx, "jane.doe")
	if err != nil {
		t.Fatalf("get rep1: %v", err)
	}
	rep2, err := authRepo.GetUserByUsername(ctx, "john.smith")
	if err != nil {
		t.Fatalf("get rep2: %v", err)
	}
	manager, err := authRepo.GetUserByUsername(ctx, "manager")
	if err != nil {
		t.Fatalf("get manager: %v", err)
	}

	callRepo := call.NewRepository(pool)
	callSvc := call.NewService(callRepo)

	// Concurrent ingestion must produce distinct records.
	const perRep = 10
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < perRep; i++ {
		i := i
		g.Go(func() error {
			_, err := callSvc.Ingest(gctx, call.IngestParams{
				CallID:   fmt.Sprintf("rep1-call-%d", i),
				RepID:    rep1.ID,
				RepName:  rep1.RepName,
				CallDate: time.Now().UTC().Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
				Analysis: call.Analysis{"key_objections": []any{"price"}},
			})
			return err
		})
		g.Go(func() error {
			_, err := callSvc.Ingest(gctx, call.IngestParams{
				CallID:   fmt.Sprintf("rep2-call-%d", i),
				RepID:    rep2.ID,
				RepName:  rep2.RepName,
				CallDate: time.Now().UTC().Add(-time.Duration(i) * time.Minute).Format(time.RFC3339),
				Analysis: call.Analysis{"key_objections": []any{"timing"}},
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent ingest: %v", err)
	}

	// Rep scope: rep1 sees only their own, even when asking for rep2.
	records, err := callSvc.List(ctx, rep1, rep2.ID, 100, 0)
	if err != nil {
		t.Fatalf("rep1 list: %v", err)
	}
	if len(records) != perRep {
		t.Fatalf("expected %d records for rep1, got %d", perRep, len(records))
	}
	for _, r := range records {
		if r.RepID != rep1.ID {
			t.Fatalf("rep1 observed foreign record owned by %q", r.RepID)
		}
	}

	// Manager scope: everything, and narrowed by filter.
	records, err = callSvc.List(ctx, manager, "", 100, 0)
	if err != nil {
		t.Fatalf("manager list: %v", err)
	}
	if len(records) != 2*perRep {
		t.Fatalf("expected %d records for manager, got %d", 2*perRep, len(records))
	}

	records, err = callSvc.List(ctx, manager, rep2.ID, 100, 0)
	if err != nil {
		t.Fatalf("manager filtered list: %v", err)
	}
	if len(records) != perRep {
		t.Fatalf("expected %d rep2 records, got %d", perRep, len(records))
	}

	// Get enforces the same rule as List.
	foreign := records[0]
	if _, err := callSvc.Get(ctx, rep1, foreign.ID); !errors.Is(err, call.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for rep1 on rep2's record, got %v", err)
	}
	if _, err := callSvc.Get(ctx, manager, foreign.ID); err != nil {
		t.Fatalf("manager get: %v", err)
	}
	if _, err := callSvc.Get(ctx, manager, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, call.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
	if _, err := callSvc.Get(ctx, manager, "not-a-uuid"); !errors.Is(err, call.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}

	// Analytics over the real record set.
	summary, err := analytics.NewService(callRepo).Summary(ctx, manager)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if summary.TotalCalls != 2*perRep {
		t.Fatalf("expected total_calls=%d, got %d", 2*perRep, summary.TotalCalls)
	}
	if summary.TotalReps != 2 {
		t.Fatalf("expected total_reps=2, got %d", summary.TotalReps)
	}
	if len(summary.CommonObjections) == 0 || summary.CommonObjections[0].Count != perRep {
		t.Fatalf("unexpected objection ranking: %+v", summary.CommonObjections)
	}

	// Chat history round-trip.
	chatSvc := chat.NewService(chat.NewRepository(pool))
	if _, err := chatSvc.Record(ctx, rep1.ID, &foreign.ID, "question", "answer"); err != nil {
		t.Fatalf("record chat: %v", err)
	}
	history, err := chatSvc.History(ctx, rep1.ID, foreign.ID)
	if err != nil {
		t.Fatalf("chat history: %v", err)
	}
	if len(history) != 1 || history[0].Message != "question" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}
