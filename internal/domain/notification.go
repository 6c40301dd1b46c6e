package domain

import (
	"context"
	"time"
)

// Push notification payload keys understood by the mobile client.
const (
	PushKeyURL = "url"
)

// EventPrelaunchTitle is the title of the pre-launch reminder notification.
const EventPrelaunchTitle = "Your event is starting soon"

// PushSender delivers a single push notification (infrastructure port).
// Delivery is best-effort; a returned error terminates the attempt, it is
// never retried.
type PushSender interface {
	Send(ctx context.Context, token, title string, payload map[string]string, appName, body string) error
}

// NotificationDispatcher fans a pre-launch notification out to a batch of
// recipients. Dispatch returns only after every attempt in the batch has
// finished; individual failures are isolated and never propagate.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, event *Event, recipients []*Recipient) (delivered int)
}

// LifecycleService advances events through their lifecycle. One invocation is
// one orchestration cycle.
type LifecycleService interface {
	AdvanceCycle(ctx context.Context, now time.Time) error
}

// MatchingService is the exclusion-aware uniform sampler used for
// person-discovery and random-event suggestion.
type MatchingService interface {
	// PickRandomPerson returns one uniformly-random eligible person for the
	// anchor, or ErrNoCandidate when no person is eligible.
	PickRandomPerson(ctx context.Context, anchorID string, filter PersonFilter) (*Person, error)

	// PickRandomEvent returns one uniformly-random eligible event for the
	// person and records it in the person's swipe history, or ErrNoCandidate.
	PickRandomEvent(ctx context.Context, personID string, filter EventFilter) (*Event, error)

	// RecordEventSwipe marks an event as shown to the person.
	RecordEventSwipe(ctx context.Context, personID, eventID string) error
}
