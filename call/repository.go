package call

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested call analysis does not exist.
var ErrNotFound = errors.New("call: not found")

// Filters narrows and pages a listing. An empty RepID means no rep filter.
type Filters struct {
	RepID string
	Limit int
	Skip  int
}

// Repository handles data access for call-analysis records.
type Repository interface {
	Insert(ctx context.Context, params InsertParams) (CallAnalysis, error)
	List(ctx context.Context, filters Filters) ([]CallAnalysis, error)
	Get(ctx context.Context, id string) (CallAnalysis, error)
	All(ctx context.Context) ([]CallAnalysis, error)
}

// InsertParams contains write parameters for a new record.
type InsertParams struct {
	ID            string
	CallID        string
	RepID         string
	RepName       string
	CallTitle     string
	CallDate      string
	TranscriptURL string
	Analysis      Analysis
}

// PGRepository implements Repository backed by PostgreSQL. The analysis
// payload is stored as JSONB so the webhook contract stays schemaless.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed call repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordColumns = `id, call_id, rep_id, rep_name, call_title, call_date, transcript_url, analysis, created_at`

// Insert stores a new call-analysis record. The creation timestamp is
// assigned by the database.
func (r *PGRepository) Insert(ctx context.Context, params InsertParams) (CallAnalysis, error) {
	const insertSQL = `
		INSERT INTO call_analyses (id, call_id, rep_id, rep_name, call_title, call_date, transcript_url, analysis)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + recordColumns

	record, err := scanRecord(r.pool.QueryRow(ctx, insertSQL,
		params.ID,
		params.CallID,
		params.RepID,
		params.RepName,
		params.CallTitle,
		params.CallDate,
		params.TranscriptURL,
		map[string]any(params.Analysis),
	))
	if err != nil {
		return CallAnalysis{}, fmt.Errorf("call: insert: %w", err)
	}

	return record, nil
}

// List returns records matching the filters, newest call date first.
func (r *PGRepository) List(ctx context.Context, filters Filters) ([]CallAnalysis, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Skip < 0 {
		filters.Skip = 0
	}

	query := `
		SELECT ` + recordColumns + `
		FROM call_analyses
	`
	args := []any{}
	if filters.RepID != "" {
		query += ` WHERE rep_id = $1`
		args = append(args, filters.RepID)
	}
	query += fmt.Sprintf(` ORDER BY call_date DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, filters.Skip, filters.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("call: list: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Get fetches a single record by its primary key.
func (r *PGRepository) Get(ctx context.Context, id string) (CallAnalysis, error) {
	const selectSQL = `
		SELECT ` + recordColumns + `
		FROM call_analyses
		WHERE id = $1
	`

	record, err := scanRecord(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallAnalysis{}, ErrNotFound
		}
		return CallAnalysis{}, fmt.Errorf("call: get: %w", err)
	}

	return record, nil
}

// All returns every record, used by the analytics aggregation.
func (r *PGRepository) All(ctx context.Context) ([]CallAnalysis, error) {
	const selectSQL = `
		SELECT ` + recordColumns + `
		FROM call_analyses
		ORDER BY call_date DESC
	`

	rows, err := r.pool.Query(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("call: list all: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]CallAnalysis, error) {
	var records []CallAnalysis
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("call: scan row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("call: iterate rows: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (CallAnalysis, error) {
	var (
		record   CallAnalysis
		analysis map[string]any
	)
	err := row.Scan(
		&record.ID,
		&record.CallID,
		&record.RepID,
		&record.RepName,
		&record.CallTitle,
		&record.CallDate,
		&record.TranscriptURL,
		&analysis,
		&record.CreatedAt,
	)
	if err != nil {
		return CallAnalysis{}, err
	}

	record.Analysis = analysis
	return record, nil
}
