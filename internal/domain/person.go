package domain

import (
	"context"
	"time"
)

// Person represents a registered person
// swagger:model Person
type Person struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	PushToken *string   `json:"-"`
	Age       *int      `json:"age,omitempty"`
	CityID    *int64    `json:"city_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersonFilter narrows the candidate set for random-person matching.
// Nil fields mean no constraint. EventID, when set, excludes persons already
// participating in that event (candidate-to-invite semantics).
type PersonFilter struct {
	MinAge      *int
	MaxAge      *int
	CityID      *int64
	EventID     *string
	ExcludedIDs []string
}

// PersonRepository defines the interface for person storage
type PersonRepository interface {
	GetByID(ctx context.Context, id string) (*Person, error)
	GetByLogin(ctx context.Context, login string) (*Person, error)

	// FilterCandidateIDs returns ids of persons eligible for random matching:
	// not the anchor, not excluded, not an existing friend of the anchor,
	// with a display name and a city set, and matching the filter constraints.
	FilterCandidateIDs(ctx context.Context, anchorID string, filter PersonFilter, excluded []string) ([]string, error)

	// ListFriendIDs returns ids of the person's friends.
	ListFriendIDs(ctx context.Context, personID string) ([]string, error)

	// GetSwipedEventIDs returns ids of events already shown to the person.
	GetSwipedEventIDs(ctx context.Context, personID string) ([]string, error)

	// AddSwipeRecord records that an event was shown to the person.
	// Recording the same pair twice is a no-op.
	AddSwipeRecord(ctx context.Context, personID, eventID string) error
}

// TokenVerifier verifies a bearer token and returns the authenticated person ID.
type TokenVerifier interface {
	Verify(token string) (personID string, err error)
}
