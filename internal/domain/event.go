package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle status of an event. Transitions are monotonic
// (Created → PreLaunch → Active → Closed) except for explicit cancellation.
type EventStatus string

const (
	EventStatusCreated   EventStatus = "created"
	EventStatusPreLaunch EventStatus = "prelaunch"
	EventStatusActive    EventStatus = "active"
	EventStatusClosed    EventStatus = "closed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Terminal reports whether no further status transfer may touch the event.
func (s EventStatus) Terminal() bool {
	return s == EventStatusClosed || s == EventStatusCancelled
}

// Event represents a coordinated social event
// swagger:model Event
type Event struct {
	ID                 string      `json:"id"`
	EventCode          string      `json:"event_code"`
	Name               string      `json:"name"`
	Description        *string     `json:"description,omitempty"`
	StartTime          time.Time   `json:"start_time"`
	EndTime            time.Time   `json:"end_time"`
	Status             EventStatus `json:"status"`
	PrelaunchNotified  bool        `json:"prelaunch_notified"`
	AdminID            string      `json:"admin_id"`
	ChatID             *string     `json:"chat_id,omitempty"`
	CityID             *int64      `json:"city_id,omitempty"`
	EventType          *string     `json:"event_type,omitempty"`
	IsOnline           bool        `json:"is_online"`
	OpenForInvitations bool        `json:"open_for_invitations"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// ParticipantStatus is the status of a person's membership in an event.
type ParticipantStatus string

const (
	ParticipantStatusInvited  ParticipantStatus = "invited"
	ParticipantStatusActive   ParticipantStatus = "active"
	ParticipantStatusDeclined ParticipantStatus = "declined"
	ParticipantStatusRemoved  ParticipantStatus = "removed"
)

// Participant is a person-to-event association.
type Participant struct {
	ID       string            `json:"id"`
	EventID  string            `json:"event_id"`
	PersonID string            `json:"person_id"`
	Status   ParticipantStatus `json:"status"`
}

// Recipient is the delivery target derived from an Active participant:
// the person behind the participant plus their delivery addresses. Token
// and Email are nil when the person has none.
type Recipient struct {
	PersonID string
	Name     string
	Token    *string
	Email    *string
}

// EventFilter narrows the candidate set for random-event matching.
// Nil fields mean no constraint.
type EventFilter struct {
	CityID      *int64
	EventType   *string
	IsOnline    *bool
	ExcludedIDs []string
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByEventCode(ctx context.Context, eventCode string) (*Event, error)

	// ListDueForPrelaunch returns events whose start time falls before
	// now+border and whose prelaunch flag is unset. Events already started
	// still qualify; terminal events never do.
	ListDueForPrelaunch(ctx context.Context, now time.Time, border time.Duration) ([]*Event, error)

	// ListActiveRecipients returns the notification fan-out set for an event:
	// one Recipient per Active participant.
	ListActiveRecipients(ctx context.Context, eventID string) ([]*Recipient, error)

	// SetPrelaunchFlags marks the prelaunch flag set on all given events.
	SetPrelaunchFlags(ctx context.Context, eventIDs []string) error

	// TransferStatuses advances every non-terminal event whose boundary has
	// passed and returns the events newly transitioned to Closed.
	TransferStatuses(ctx context.Context, now time.Time, border time.Duration) ([]*Event, error)

	// PruneStaleParticipants removes every non-Active participant attached to
	// a Closed event and returns the number of rows removed.
	PruneStaleParticipants(ctx context.Context) (int64, error)

	// FilterCandidateIDs returns ids of events eligible for random matching
	// for the given person: open for invitations, not terminal, not already
	// joined or administered by the person, not in excluded, and matching the
	// filter constraints.
	FilterCandidateIDs(ctx context.Context, personID string, filter EventFilter, excluded []string) ([]string, error)
}
