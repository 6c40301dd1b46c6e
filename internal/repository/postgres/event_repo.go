package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"lumebackend/internal/domain"
)

const eventColumns = `id, event_code, name, description, start_time, end_time, status,
		prelaunch_notified, admin_id, chat_id, city_id, event_type, is_online,
		open_for_invitations, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull, chatNull, typeNull sql.NullString
	var cityNull sql.NullInt64
	err := row.Scan(
		&e.ID, &e.EventCode, &e.Name, &descNull, &e.StartTime, &e.EndTime, &e.Status,
		&e.PrelaunchNotified, &e.AdminID, &chatNull, &cityNull, &typeNull, &e.IsOnline,
		&e.OpenForInvitations, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if chatNull.Valid {
		e.ChatID = &chatNull.String
	}
	if cityNull.Valid {
		e.CityID = &cityNull.Int64
	}
	if typeNull.Valid {
		e.EventType = &typeNull.String
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetByEventCode(ctx context.Context, eventCode string) (*domain.Event, error) {
	code := strings.ToLower(strings.TrimSpace(eventCode))
	query := fmt.Sprintf(`SELECT %s FROM events WHERE event_code = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListDueForPrelaunch(ctx context.Context, now time.Time, border time.Duration) ([]*domain.Event, error) {
	// Past-due starts still qualify: the window check is an upper bound only,
	// so events missed by a skipped cycle are picked up on the next one.
	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE start_time < $1
		  AND prelaunch_notified = FALSE
		  AND status NOT IN ('closed', 'cancelled')
		ORDER BY start_time
	`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, now.Add(border))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListActiveRecipients(ctx context.Context, eventID string) ([]*domain.Recipient, error) {
	query := `
		SELECT p.id, COALESCE(p.name, ''), p.push_token, p.email
		FROM participants pt
		JOIN persons p ON p.id = pt.person_id
		WHERE pt.event_id = $1 AND pt.status = 'active'
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recipients := make([]*domain.Recipient, 0)
	for rows.Next() {
		rec := &domain.Recipient{}
		var tokenNull, emailNull sql.NullString
		if err := rows.Scan(&rec.PersonID, &rec.Name, &tokenNull, &emailNull); err != nil {
			return nil, err
		}
		if tokenNull.Valid && strings.TrimSpace(tokenNull.String) != "" {
			rec.Token = &tokenNull.String
		}
		if emailNull.Valid && strings.TrimSpace(emailNull.String) != "" {
			rec.Email = &emailNull.String
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *eventRepository) SetPrelaunchFlags(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	query := `
		UPDATE events
		SET prelaunch_notified = TRUE, updated_at = NOW()
		WHERE id = ANY($1)
	`
	_, err := r.DB.ExecContext(ctx, query, pq.Array(eventIDs))
	return err
}

func (r *eventRepository) TransferStatuses(ctx context.Context, now time.Time, border time.Duration) ([]*domain.Event, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Created events inside the notification border move to prelaunch.
	_, err = tx.ExecContext(ctx, `
		UPDATE events
		SET status = 'prelaunch', updated_at = NOW()
		WHERE status = 'created' AND start_time < $1
	`, now.Add(border))
	if err != nil {
		return nil, fmt.Errorf("transfer to prelaunch: %w", err)
	}

	// Started events move to active.
	_, err = tx.ExecContext(ctx, `
		UPDATE events
		SET status = 'active', updated_at = NOW()
		WHERE status IN ('created', 'prelaunch') AND start_time <= $1
	`, now)
	if err != nil {
		return nil, fmt.Errorf("transfer to active: %w", err)
	}

	// Ended events move to closed. Cancelled is terminal and never touched.
	query := fmt.Sprintf(`
		UPDATE events
		SET status = 'closed', updated_at = NOW()
		WHERE status NOT IN ('closed', 'cancelled') AND end_time <= $1
		RETURNING %s
	`, eventColumns)
	rows, err := tx.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("transfer to closed: %w", err)
	}
	closed := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		closed = append(closed, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return closed, nil
}

func (r *eventRepository) PruneStaleParticipants(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM participants pt
		USING events e
		WHERE e.id = pt.event_id
		  AND e.status = 'closed'
		  AND pt.status <> 'active'
	`
	result, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}

func (r *eventRepository) FilterCandidateIDs(ctx context.Context, personID string, filter domain.EventFilter, excluded []string) ([]string, error) {
	conds := []string{
		"e.status NOT IN ('closed', 'cancelled')",
		"e.open_for_invitations = TRUE",
		"e.admin_id <> $1",
		`NOT EXISTS (
			SELECT 1 FROM participants pt
			WHERE pt.event_id = e.id AND pt.person_id = $1 AND pt.status <> 'removed'
		)`,
	}
	args := []any{personID}
	n := 2
	if len(excluded) > 0 {
		conds = append(conds, fmt.Sprintf("NOT (e.id = ANY($%d))", n))
		args = append(args, pq.Array(excluded))
		n++
	}
	if filter.CityID != nil {
		conds = append(conds, fmt.Sprintf("e.city_id = $%d", n))
		args = append(args, *filter.CityID)
		n++
	}
	if filter.EventType != nil {
		conds = append(conds, fmt.Sprintf("e.event_type = $%d", n))
		args = append(args, *filter.EventType)
		n++
	}
	if filter.IsOnline != nil {
		conds = append(conds, fmt.Sprintf("e.is_online = $%d", n))
		args = append(args, *filter.IsOnline)
		n++
	}
	query := fmt.Sprintf(`SELECT e.id FROM events e WHERE %s`, strings.Join(conds, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
