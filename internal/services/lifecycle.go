package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lumebackend/internal/domain"
)

type lifecycleService struct {
	eventRepo      domain.EventRepository
	dispatcher     domain.NotificationDispatcher
	badgeService   domain.BadgeService
	border         time.Duration
	contextTimeout time.Duration
	logger         *slog.Logger
}

// NewLifecycleService returns a LifecycleService that advances event statuses,
// fans out pre-launch notifications, prunes stale participants, and grants
// badges for events closed during the cycle. border is the pre-launch window.
func NewLifecycleService(eventRepo domain.EventRepository,
	dispatcher domain.NotificationDispatcher,
	badgeService domain.BadgeService,
	border time.Duration,
	timeout time.Duration,
	logger *slog.Logger,
) domain.LifecycleService {
	return &lifecycleService{
		eventRepo:      eventRepo,
		dispatcher:     dispatcher,
		badgeService:   badgeService,
		border:         border,
		contextTimeout: timeout,
		logger:         logger,
	}
}

// AdvanceCycle runs one orchestration cycle. A failing step abandons the rest
// of the cycle; every step re-derives its due set from persisted state, so the
// next scheduled cycle resumes correctly.
func (s *lifecycleService) AdvanceCycle(ctx context.Context, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	due, err := s.eventRepo.ListDueForPrelaunch(ctx, now, s.border)
	if err != nil {
		return fmt.Errorf("list due for prelaunch: %w", err)
	}

	for _, event := range due {
		recipients, err := s.eventRepo.ListActiveRecipients(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("list recipients for event %s: %w", event.ID, err)
		}
		// An event with no recipients still gets its flag set below, so it is
		// never re-matched on later cycles.
		delivered := s.dispatcher.Dispatch(ctx, event, recipients)
		s.logger.Info("prelaunch notifications dispatched",
			"event_id", event.ID,
			"recipients", len(recipients),
			"delivered", delivered,
		)
	}

	// The flag is set once per event regardless of individual delivery
	// failures: notification intent is at-most-once, delivery is best-effort.
	if len(due) > 0 {
		ids := make([]string, 0, len(due))
		for _, event := range due {
			ids = append(ids, event.ID)
		}
		if err := s.eventRepo.SetPrelaunchFlags(ctx, ids); err != nil {
			return fmt.Errorf("set prelaunch flags: %w", err)
		}
	}

	closed, err := s.eventRepo.TransferStatuses(ctx, now, s.border)
	if err != nil {
		return fmt.Errorf("transfer statuses: %w", err)
	}
	if len(closed) > 0 {
		s.logger.Info("events closed", "count", len(closed))
	}

	// Prune sweeps all stale+closed combinations, not just this cycle's
	// closures: a participant can go stale between cycles.
	removed, err := s.eventRepo.PruneStaleParticipants(ctx)
	if err != nil {
		return fmt.Errorf("prune stale participants: %w", err)
	}
	if removed > 0 {
		s.logger.Info("stale participants pruned", "count", removed)
	}

	if err := s.badgeService.GrantBadges(ctx, closed); err != nil {
		return fmt.Errorf("grant badges: %w", err)
	}

	return nil
}
