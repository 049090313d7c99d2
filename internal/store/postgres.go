package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookden/library-app/backend/internal/models"
)

// HistoryStore persists borrow/return events in PostgreSQL. Rows are
// append-only; the user's active borrow list lives on the user
// document, this table is the audit trail behind it.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// Migrate creates the borrow_events table if it doesn't exist.
func (s *HistoryStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS borrow_events (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id     VARCHAR(24)  NOT NULL,
			book_id     VARCHAR(24)  NOT NULL,
			book_title  TEXT         NOT NULL,
			action      VARCHAR(10)  NOT NULL,
			due_date    TIMESTAMPTZ,
			occurred_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS borrow_events_user_idx
			ON borrow_events (user_id, occurred_at DESC)
	`)
	return err
}

func (s *HistoryStore) Append(ctx context.Context, ev models.BorrowEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO borrow_events (user_id, book_id, book_title, action, due_date, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.UserID, ev.BookID, ev.BookTitle, ev.Action, ev.DueDate, ev.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append borrow event: %w", err)
	}
	return nil
}

func (s *HistoryStore) ListByUser(ctx context.Context, userID string) ([]models.BorrowEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, book_id, book_title, action, due_date, occurred_at
		 FROM borrow_events
		 WHERE user_id = $1
		 ORDER BY occurred_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list borrow events: %w", err)
	}
	defer rows.Close()

	var events []models.BorrowEvent
	for rows.Next() {
		var ev models.BorrowEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.BookID, &ev.BookTitle, &ev.Action, &ev.DueDate, &ev.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
