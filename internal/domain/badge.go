package domain

import (
	"context"
	"time"
)

// BadgeTrigger keys the closing condition a badge rule is evaluated against.
type BadgeTrigger string

const (
	// BadgeTriggerEventsOrganized counts closed events the person administered.
	BadgeTriggerEventsOrganized BadgeTrigger = "events_organized"
	// BadgeTriggerEventsAttended counts closed events the person actively participated in.
	BadgeTriggerEventsAttended BadgeTrigger = "events_attended"
)

// Badge is an achievement granted when a person's closed-event count for the
// trigger reaches the threshold.
type Badge struct {
	ID        string       `json:"id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Trigger   BadgeTrigger `json:"trigger"`
	Threshold int          `json:"threshold"`
}

// BadgeGrant is a timestamped (person, badge) association.
type BadgeGrant struct {
	PersonID  string    `json:"person_id"`
	BadgeID   string    `json:"badge_id"`
	GrantedAt time.Time `json:"granted_at"`
}

// BadgeRepository defines the interface for badge storage
type BadgeRepository interface {
	// ListDefinitions returns all badge definitions.
	ListDefinitions(ctx context.Context) ([]*Badge, error)

	// Grant inserts a (person, badge) grant. It returns false without error
	// when the grant already exists.
	Grant(ctx context.Context, personID, badgeID string) (bool, error)

	// CountClosedEventsByAdmin returns how many closed events the person administered.
	CountClosedEventsByAdmin(ctx context.Context, personID string) (int, error)

	// CountClosedEventsByParticipant returns how many closed events the person
	// actively participated in.
	CountClosedEventsByParticipant(ctx context.Context, personID string) (int, error)
}

// BadgeService evaluates badge rules against events that just closed.
type BadgeService interface {
	// GrantBadges is idempotent: re-invoking with the same closed-event set
	// produces no duplicate grants.
	GrantBadges(ctx context.Context, closed []*Event) error
}
