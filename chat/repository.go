package chat

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles data access for stored chat exchanges.
type Repository interface {
	Insert(ctx context.Context, params InsertParams) (Exchange, error)
	ListForUser(ctx context.Context, userID string, callID string) ([]Exchange, error)
}

// InsertParams contains write parameters for a new exchange.
type InsertParams struct {
	ID       string
	UserID   string
	CallID   *string
	Message  string
	Response string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed chat repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert stores one question/answer pair.
func (r *PGRepository) Insert(ctx context.Context, params InsertParams) (Exchange, error) {
	const insertSQL = `
		INSERT INTO chat_messages (id, user_id, call_id, message, response)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING id, user_id, call_id, message, response, created_at
	`

	exchange, err := scanExchange(r.pool.QueryRow(ctx, insertSQL,
		params.ID,
		params.UserID,
		params.CallID,
		params.Message,
		params.Response,
	))
	if err != nil {
		return Exchange{}, fmt.Errorf("chat: insert: %w", err)
	}

	return exchange, nil
}

// ListForUser returns the user's exchanges, oldest first. A non-empty
// callID narrows to the conversation about that call.
func (r *PGRepository) ListForUser(ctx context.Context, userID string, callID string) ([]Exchange, error) {
	query := `
		SELECT id, user_id, call_id, message, response, created_at
		FROM chat_messages
		WHERE user_id = $1
	`
	args := []any{userID}
	if callID != "" {
		query += ` AND call_id = $2`
		args = append(args, callID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chat: list: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		exchange, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("chat: scan row: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chat: iterate rows: %w", err)
	}

	return exchanges, nil
}

func scanExchange(row pgx.Row) (Exchange, error) {
	var (
		exchange Exchange
		callID   *string
	)
	err := row.Scan(
		&exchange.ID,
		&exchange.UserID,
		&callID,
		&exchange.Message,
		&exchange.Response,
		&exchange.CreatedAt,
	)
	if err != nil {
		return Exchange{}, err
	}

	exchange.CallID = callID
	return exchange, nil
}
