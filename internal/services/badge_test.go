package services

import (
	"context"
	"errors"
	"testing"

	"lumebackend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBadgeRepo is an in-memory BadgeRepository for tests.
type fakeBadgeRepo struct {
	defs        []*domain.Badge
	grants      map[string]bool // personID + "|" + badgeID
	adminCounts map[string]int
	partCounts  map[string]int

	listErr  error
	grantErr error
	countErr error

	grantCalls int
}

func newFakeBadgeRepo() *fakeBadgeRepo {
	return &fakeBadgeRepo{
		grants:      make(map[string]bool),
		adminCounts: make(map[string]int),
		partCounts:  make(map[string]int),
	}
}

func (f *fakeBadgeRepo) ListDefinitions(ctx context.Context) ([]*domain.Badge, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.defs, nil
}

func (f *fakeBadgeRepo) Grant(ctx context.Context, personID, badgeID string) (bool, error) {
	f.grantCalls++
	if f.grantErr != nil {
		return false, f.grantErr
	}
	key := personID + "|" + badgeID
	if f.grants[key] {
		return false, nil
	}
	f.grants[key] = true
	return true, nil
}

func (f *fakeBadgeRepo) CountClosedEventsByAdmin(ctx context.Context, personID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.adminCounts[personID], nil
}

func (f *fakeBadgeRepo) CountClosedEventsByParticipant(ctx context.Context, personID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.partCounts[personID], nil
}

func organizerBadge(id string, threshold int) *domain.Badge {
	return &domain.Badge{ID: id, Code: "organizer-" + id, Name: "Organizer", Trigger: domain.BadgeTriggerEventsOrganized, Threshold: threshold}
}

func attendeeBadge(id string, threshold int) *domain.Badge {
	return &domain.Badge{ID: id, Code: "attendee-" + id, Name: "Attendee", Trigger: domain.BadgeTriggerEventsAttended, Threshold: threshold}
}

func TestBadgeService_GrantBadges(t *testing.T) {
	ctx := context.Background()

	closedEvent := func(id, adminID string) *domain.Event {
		return &domain.Event{ID: id, AdminID: adminID, Status: domain.EventStatusClosed}
	}

	tests := []struct {
		name    string
		setup   func() (*fakeBadgeRepo, *fakeEventRepo)
		closed  []*domain.Event
		wantErr bool
		assert  func(t *testing.T, badgeRepo *fakeBadgeRepo)
	}{
		{
			name: "grants organizer badge at threshold",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				br := newFakeBadgeRepo()
				br.defs = []*domain.Badge{organizerBadge("b-1", 3)}
				br.adminCounts["admin-1"] = 3
				return br, newFakeEventRepo()
			},
			closed: []*domain.Event{closedEvent("ev-1", "admin-1")},
			assert: func(t *testing.T, badgeRepo *fakeBadgeRepo) {
				assert.True(t, badgeRepo.grants["admin-1|b-1"])
			},
		},
		{
			name: "below threshold grants nothing",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				br := newFakeBadgeRepo()
				br.defs = []*domain.Badge{organizerBadge("b-1", 5)}
				br.adminCounts["admin-1"] = 4
				return br, newFakeEventRepo()
			},
			closed: []*domain.Event{closedEvent("ev-1", "admin-1")},
			assert: func(t *testing.T, badgeRepo *fakeBadgeRepo) {
				assert.Empty(t, badgeRepo.grants)
				assert.Equal(t, 0, badgeRepo.grantCalls)
			},
		},
		{
			name: "grants attendee badges to active participants",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				br := newFakeBadgeRepo()
				br.defs = []*domain.Badge{attendeeBadge("b-2", 1)}
				br.partCounts["p-1"] = 1
				br.partCounts["p-2"] = 1
				er := newFakeEventRepo()
				er.recipients["ev-1"] = []*domain.Recipient{
					{PersonID: "p-1", Name: "Ann"},
					{PersonID: "p-2", Name: "Bob"},
				}
				return br, er
			},
			closed: []*domain.Event{closedEvent("ev-1", "admin-1")},
			assert: func(t *testing.T, badgeRepo *fakeBadgeRepo) {
				assert.True(t, badgeRepo.grants["p-1|b-2"])
				assert.True(t, badgeRepo.grants["p-2|b-2"])
				_, adminGot := badgeRepo.grants["admin-1|b-2"]
				assert.False(t, adminGot, "attendee badge must not go to the admin")
			},
		},
		{
			name: "re-run over the same closed set adds no grants",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				br := newFakeBadgeRepo()
				br.defs = []*domain.Badge{organizerBadge("b-1", 1)}
				br.adminCounts["admin-1"] = 1
				br.grants["admin-1|b-1"] = true
				return br, newFakeEventRepo()
			},
			closed: []*domain.Event{closedEvent("ev-1", "admin-1")},
			assert: func(t *testing.T, badgeRepo *fakeBadgeRepo) {
				require.Len(t, badgeRepo.grants, 1)
				assert.Equal(t, 1, badgeRepo.grantCalls)
			},
		},
		{
			name: "empty closed set skips definition lookup",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				br := newFakeBadgeRepo()
				br.listErr = errors.New("must not be called")
				return br, newFakeEventRepo()
			},
			closed: nil,
			assert: func(t *testing.T, badgeRepo *fakeBadgeRepo) {
				assert.Empty(t, badgeRepo.grants)
			},
		},
		{
			name: "no definitions is a no-op",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				return newFakeBadgeRepo(), newFakeEventRepo()
			},
			closed: []*domain.Event{closedEvent("ev-1", "admin-1")},
			assert: func(t *testing.T, badgeRepo *fakeBadgeRepo) {
				assert.Equal(t, 0, badgeRepo.grantCalls)
			},
		},
		{
			name: "definition lookup error propagates",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				br := newFakeBadgeRepo()
				br.listErr = errors.New("db down")
				return br, newFakeEventRepo()
			},
			closed:  []*domain.Event{closedEvent("ev-1", "admin-1")},
			wantErr: true,
			assert:  func(t *testing.T, _ *fakeBadgeRepo) {},
		},
		{
			name: "grant error propagates",
			setup: func() (*fakeBadgeRepo, *fakeEventRepo) {
				br := newFakeBadgeRepo()
				br.defs = []*domain.Badge{organizerBadge("b-1", 1)}
				br.adminCounts["admin-1"] = 1
				br.grantErr = errors.New("write failed")
				return br, newFakeEventRepo()
			},
			closed:  []*domain.Event{closedEvent("ev-1", "admin-1")},
			wantErr: true,
			assert:  func(t *testing.T, _ *fakeBadgeRepo) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			badgeRepo, eventRepo := tt.setup()
			svc := NewBadgeService(badgeRepo, eventRepo, discardLogger())
			err := svc.GrantBadges(ctx, tt.closed)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.assert(t, badgeRepo)
		})
	}
}
