package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"lumebackend/internal/domain"
)

const personColumns = `id, login, name, email, push_token, age, city_id, created_at, updated_at`

type personRepository struct {
	DB *sql.DB
}

func NewPersonRepository(db *sql.DB) domain.PersonRepository {
	return &personRepository{
		DB: db,
	}
}

func scanPerson(row interface{ Scan(...any) error }) (*domain.Person, error) {
	p := &domain.Person{}
	var nameNull, emailNull, tokenNull sql.NullString
	var ageNull sql.NullInt64
	var cityNull sql.NullInt64
	err := row.Scan(&p.ID, &p.Login, &nameNull, &emailNull, &tokenNull, &ageNull, &cityNull, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if nameNull.Valid {
		p.Name = &nameNull.String
	}
	if emailNull.Valid {
		p.Email = &emailNull.String
	}
	if tokenNull.Valid {
		p.PushToken = &tokenNull.String
	}
	if ageNull.Valid {
		age := int(ageNull.Int64)
		p.Age = &age
	}
	if cityNull.Valid {
		p.CityID = &cityNull.Int64
	}
	return p, nil
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE id = $1`, personColumns)
	p, err := scanPerson(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *personRepository) GetByLogin(ctx context.Context, login string) (*domain.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE login = $1`, personColumns)
	p, err := scanPerson(r.DB.QueryRowContext(ctx, query, strings.TrimSpace(login)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *personRepository) FilterCandidateIDs(ctx context.Context, anchorID string, filter domain.PersonFilter, excluded []string) ([]string, error) {
	// A candidate must be presentable: a display name and a city are required
	// before a profile can be shown in discovery.
	conds := []string{
		"p.id <> $1",
		"COALESCE(p.name, '') <> ''",
		"p.city_id IS NOT NULL",
		`NOT EXISTS (
			SELECT 1 FROM person_friends pf
			WHERE pf.person_id = $1 AND pf.friend_id = p.id
		)`,
	}
	args := []any{anchorID}
	n := 2
	if len(excluded) > 0 {
		conds = append(conds, fmt.Sprintf("NOT (p.id = ANY($%d))", n))
		args = append(args, pq.Array(excluded))
		n++
	}
	if filter.EventID != nil {
		conds = append(conds, fmt.Sprintf(`NOT EXISTS (
			SELECT 1 FROM participants pt
			WHERE pt.event_id = $%d AND pt.person_id = p.id
		)`, n))
		args = append(args, *filter.EventID)
		n++
	}
	if filter.MinAge != nil {
		conds = append(conds, fmt.Sprintf("p.age >= $%d", n))
		args = append(args, *filter.MinAge)
		n++
	}
	if filter.MaxAge != nil {
		conds = append(conds, fmt.Sprintf("p.age <= $%d", n))
		args = append(args, *filter.MaxAge)
		n++
	}
	if filter.CityID != nil {
		conds = append(conds, fmt.Sprintf("p.city_id = $%d", n))
		args = append(args, *filter.CityID)
		n++
	}
	query := fmt.Sprintf(`SELECT p.id FROM persons p WHERE %s`, strings.Join(conds, " AND "))
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

func (r *personRepository) ListFriendIDs(ctx context.Context, personID string) ([]string, error) {
	query := `SELECT friend_id FROM person_friends WHERE person_id = $1`
	rows, err := r.DB.QueryContext(ctx, query, personID)
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

func (r *personRepository) GetSwipedEventIDs(ctx context.Context, personID string) ([]string, error) {
	query := `SELECT event_id FROM person_swipe_history WHERE person_id = $1`
	rows, err := r.DB.QueryContext(ctx, query, personID)
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

func (r *personRepository) AddSwipeRecord(ctx context.Context, personID, eventID string) error {
	query := `
		INSERT INTO person_swipe_history (person_id, event_id)
		VALUES ($1, $2)
		ON CONFLICT (person_id, event_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, personID, eventID)
	return err
}
