package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recruit-assistant/analytics"
	apperrors "recruit-assistant/errors"

	"github.com/lib/pq"
)

var _ analytics.Store = (*PostgresStore)(nil)

func (s *PostgresStore) Record(ctx context.Context, event analytics.Event) error {
	query := `
		INSERT INTO question_events (id, question, category, icon, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.DB.ExecContext(ctx, query, event.ID, event.Question, event.Category, event.Icon, event.Timestamp); err != nil {
		return apperrors.WrapCause(apperrors.ErrDatabaseOperation, err, "failed to record question event")
	}
	return nil
}

// buildListQuery assembles the SELECT for a filter; split out so the SQL can be checked without a database.
func buildListQuery(filter analytics.ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(filter.Categories))
		where = append(where, fmt.Sprintf("category = ANY($%d::text[])", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT id, question, category, icon, created_at FROM question_events")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func (s *PostgresStore) List(ctx context.Context, filter analytics.ListFilter) ([]analytics.Event, error) {
	query, args := buildListQuery(filter)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapCause(apperrors.ErrDatabaseOperation, err, "failed to list question events")
	}
	defer rows.Close()

	events := []analytics.Event{}
	for rows.Next() {
		var e analytics.Event
		if err := rows.Scan(&e.ID, &e.Question, &e.Category, &e.Icon, &e.Timestamp); err != nil {
			return nil, apperrors.WrapCause(apperrors.ErrDatabaseOperation, err, "failed to scan question event")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapCause(apperrors.ErrDatabaseOperation, err, "failed to read question events")
	}
	return events, nil
}

func (s *PostgresStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM question_events`)
	if err != nil {
		return 0, apperrors.WrapCause(apperrors.ErrDatabaseOperation, err, "failed to clear question events")
	}
	return res.RowsAffected()
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM question_events WHERE created_at < $1`, before)
	if err != nil {
		return 0, apperrors.WrapCause(apperrors.ErrDatabaseOperation, err, "failed to purge question events")
	}
	return res.RowsAffected()
}
