package postgres

import (
	"context"
	"database/sql"

	"lumebackend/internal/domain"
)

type badgeRepository struct {
	DB *sql.DB
}

func NewBadgeRepository(db *sql.DB) domain.BadgeRepository {
	return &badgeRepository{
		DB: db,
	}
}

func (r *badgeRepository) ListDefinitions(ctx context.Context) ([]*domain.Badge, error) {
	query := `
		SELECT id, code, name, trigger, threshold
		FROM badges
		ORDER BY trigger, threshold
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	badges := make([]*domain.Badge, 0)
	for rows.Next() {
		b := &domain.Badge{}
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Trigger, &b.Threshold); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// Grant relies on the (person_id, badge_id) primary key: a conflicting insert
// is reported as not-granted rather than an error, which makes the badge
// awarder safe to re-run over the same closed-event set.
func (r *badgeRepository) Grant(ctx context.Context, personID, badgeID string) (bool, error) {
	query := `
		INSERT INTO person_badges (person_id, badge_id, granted_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (person_id, badge_id) DO NOTHING
	`
	result, err := r.DB.ExecContext(ctx, query, personID, badgeID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *badgeRepository) CountClosedEventsByAdmin(ctx context.Context, personID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM events
		WHERE admin_id = $1 AND status = 'closed'
	`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, personID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *badgeRepository) CountClosedEventsByParticipant(ctx context.Context, personID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM participants pt
		JOIN events e ON e.id = pt.event_id
		WHERE pt.person_id = $1 AND pt.status = 'active' AND e.status = 'closed'
	`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, personID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
