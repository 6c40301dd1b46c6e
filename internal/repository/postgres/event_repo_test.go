package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"lumebackend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var eventCols = []string{
	"id", "event_code", "name", "description", "start_time", "end_time", "status",
	"prelaunch_notified", "admin_id", "chat_id", "city_id", "event_type", "is_online",
	"open_for_invitations", "created_at", "updated_at",
}

func addEventRow(rows *sqlmock.Rows, id, code string, start, end time.Time, status string, notified bool) *sqlmock.Rows {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, code, "Event "+id, nil, start, end, status,
		notified, "admin-1", nil, nil, nil, false,
		true, created, created,
	)
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name    string
		id      string
		mock    func(mock sqlmock.Sqlmock)
		want    string
		wantErr error
	}{
		{
			name: "success",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, event_code, name, description, start_time, end_time, status`).
					WithArgs("ev-1").
					WillReturnRows(addEventRow(sqlmock.NewRows(eventCols), "ev-1", "ab12", start, end, "created", false))
			},
			want: "ev-1",
		},
		{
			name: "not found",
			id:   "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, event_code, name, description, start_time, end_time, status`).
					WithArgs("ev-missing").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.ID)
			require.Equal(t, "ab12", got.EventCode)
			require.Nil(t, got.Description)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_ListDueForPrelaunch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	border := time.Hour

	t.Run("returns due events", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		start := now.Add(30 * time.Minute)
		rows := sqlmock.NewRows(eventCols)
		rows = addEventRow(rows, "ev-1", "ab12", start, start.Add(2*time.Hour), "created", false)
		rows = addEventRow(rows, "ev-2", "cd34", start, start.Add(time.Hour), "prelaunch", false)
		mock.ExpectQuery(`FROM events\s+WHERE start_time < \$1\s+AND prelaunch_notified = FALSE`).
			WithArgs(now.Add(border)).
			WillReturnRows(rows)

		repo := NewEventRepository(db)
		got, err := repo.ListDueForPrelaunch(ctx, now, border)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "ev-1", got[0].ID)
		require.False(t, got[0].PrelaunchNotified)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM events`).
			WithArgs(now.Add(border)).
			WillReturnRows(sqlmock.NewRows(eventCols))

		repo := NewEventRepository(db)
		got, err := repo.ListDueForPrelaunch(ctx, now, border)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got, 0)
	})
}

func TestEventRepository_ListActiveRecipients(t *testing.T) {
	ctx := context.Background()

	t.Run("maps null and blank addresses to nil", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{"id", "name", "push_token", "email"}).
			AddRow("p-1", "Ann", "tok-1", "ann@example.com").
			AddRow("p-2", "Bob", nil, "bob@example.com").
			AddRow("p-3", "Cid", "   ", nil)
		mock.ExpectQuery(`FROM participants pt\s+JOIN persons p ON p.id = pt.person_id`).
			WithArgs("ev-1").
			WillReturnRows(rows)

		repo := NewEventRepository(db)
		got, err := repo.ListActiveRecipients(ctx, "ev-1")
		require.NoError(t, err)
		require.Len(t, got, 3)
		require.NotNil(t, got[0].Token)
		require.NotNil(t, got[0].Email)
		require.Nil(t, got[1].Token)
		require.NotNil(t, got[1].Email)
		require.Nil(t, got[2].Token, "blank token must map to nil")
		require.Nil(t, got[2].Email)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_SetPrelaunchFlags(t *testing.T) {
	ctx := context.Background()

	t.Run("flags the given ids", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE events\s+SET prelaunch_notified = TRUE`).
			WithArgs(pq.Array([]string{"ev-1", "ev-2"})).
			WillReturnResult(sqlmock.NewResult(0, 2))

		repo := NewEventRepository(db)
		require.NoError(t, repo.SetPrelaunchFlags(ctx, []string{"ev-1", "ev-2"}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty id list skips the query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewEventRepository(db)
		require.NoError(t, repo.SetPrelaunchFlags(ctx, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_TransferStatuses(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	border := time.Hour

	t.Run("advances statuses and returns newly closed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`SET status = 'prelaunch'`).
			WithArgs(now.Add(border)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`SET status = 'active'`).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		closedRows := addEventRow(sqlmock.NewRows(eventCols),
			"ev-old", "zz99", now.Add(-5*time.Hour), now.Add(-3*time.Hour), "closed", true)
		mock.ExpectQuery(`SET status = 'closed'`).
			WithArgs(now).
			WillReturnRows(closedRows)
		mock.ExpectCommit()

		repo := NewEventRepository(db)
		closed, err := repo.TransferStatuses(ctx, now, border)
		require.NoError(t, err)
		require.Len(t, closed, 1)
		require.Equal(t, "ev-old", closed[0].ID)
		require.Equal(t, domain.EventStatusClosed, closed[0].Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to close", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`SET status = 'prelaunch'`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SET status = 'active'`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SET status = 'closed'`).WillReturnRows(sqlmock.NewRows(eventCols))
		mock.ExpectCommit()

		repo := NewEventRepository(db)
		closed, err := repo.TransferStatuses(ctx, now, border)
		require.NoError(t, err)
		require.NotNil(t, closed)
		require.Len(t, closed, 0)
	})

	t.Run("step failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`SET status = 'prelaunch'`).WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		repo := NewEventRepository(db)
		_, err = repo.TransferStatuses(ctx, now, border)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_PruneStaleParticipants(t *testing.T) {
	ctx := context.Background()

	t.Run("returns removed count", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM participants pt\s+USING events e`).
			WillReturnResult(sqlmock.NewResult(0, 4))

		repo := NewEventRepository(db)
		removed, err := repo.PruneStaleParticipants(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(4), removed)
	})

	t.Run("db error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM participants pt`).
			WillReturnError(sql.ErrConnDone)

		repo := NewEventRepository(db)
		_, err = repo.PruneStaleParticipants(ctx)
		require.Error(t, err)
	})
}

func TestEventRepository_FilterCandidateIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("no filters", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT e.id FROM events e WHERE`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1").AddRow("ev-2"))

		repo := NewEventRepository(db)
		ids, err := repo.FilterCandidateIDs(ctx, "p-1", domain.EventFilter{}, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"ev-1", "ev-2"}, ids)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all filters bound in order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cityID := int64(7)
		eventType := "picnic"
		online := true
		mock.ExpectQuery(`SELECT e.id FROM events e WHERE`).
			WithArgs("p-1", pq.Array([]string{"ev-9"}), cityID, eventType, online).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))

		repo := NewEventRepository(db)
		ids, err := repo.FilterCandidateIDs(ctx, "p-1",
			domain.EventFilter{CityID: &cityID, EventType: &eventType, IsOnline: &online},
			[]string{"ev-9"})
		require.NoError(t, err)
		require.Equal(t, []string{"ev-1"}, ids)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty candidate set", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT e.id FROM events e WHERE`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewEventRepository(db)
		ids, err := repo.FilterCandidateIDs(ctx, "p-1", domain.EventFilter{}, nil)
		require.NoError(t, err)
		require.NotNil(t, ids)
		require.Len(t, ids, 0)
	})
}
