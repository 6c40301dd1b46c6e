package services

import (
	"context"
	"fmt"
	"log/slog"

	"lumebackend/internal/domain"
)

type badgeService struct {
	badgeRepo domain.BadgeRepository
	eventRepo domain.EventRepository
	logger    *slog.Logger
}

// NewBadgeService returns a BadgeService that evaluates threshold rules
// (events organized, events attended) against closed-event facts.
func NewBadgeService(badgeRepo domain.BadgeRepository, eventRepo domain.EventRepository, logger *slog.Logger) domain.BadgeService {
	return &badgeService{
		badgeRepo: badgeRepo,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

// GrantBadges evaluates every badge definition for every person touched by the
// closed events. Grants are derived from persisted closed-event counts, so
// re-running over the same set is a no-op: the repository refuses duplicate
// (person, badge) rows.
func (s *badgeService) GrantBadges(ctx context.Context, closed []*domain.Event) error {
	if len(closed) == 0 {
		return nil
	}

	badges, err := s.badgeRepo.ListDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("list badge definitions: %w", err)
	}
	if len(badges) == 0 {
		return nil
	}

	admins, participants, err := s.collectCandidates(ctx, closed)
	if err != nil {
		return err
	}

	for personID := range admins {
		count, err := s.badgeRepo.CountClosedEventsByAdmin(ctx, personID)
		if err != nil {
			return fmt.Errorf("count closed events by admin %s: %w", personID, err)
		}
		if err := s.grantEligible(ctx, personID, domain.BadgeTriggerEventsOrganized, count, badges); err != nil {
			return err
		}
	}
	for personID := range participants {
		count, err := s.badgeRepo.CountClosedEventsByParticipant(ctx, personID)
		if err != nil {
			return fmt.Errorf("count closed events by participant %s: %w", personID, err)
		}
		if err := s.grantEligible(ctx, personID, domain.BadgeTriggerEventsAttended, count, badges); err != nil {
			return err
		}
	}
	return nil
}

// collectCandidates gathers the persons whose counts may have changed: the
// administrators of the closed events and their active participants.
func (s *badgeService) collectCandidates(ctx context.Context, closed []*domain.Event) (admins, participants map[string]struct{}, err error) {
	admins = make(map[string]struct{})
	participants = make(map[string]struct{})
	for _, event := range closed {
		admins[event.AdminID] = struct{}{}
		recipients, err := s.eventRepo.ListActiveRecipients(ctx, event.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("list participants for closed event %s: %w", event.ID, err)
		}
		for _, rec := range recipients {
			participants[rec.PersonID] = struct{}{}
		}
	}
	return admins, participants, nil
}

func (s *badgeService) grantEligible(ctx context.Context, personID string, trigger domain.BadgeTrigger, count int, badges []*domain.Badge) error {
	for _, badge := range badges {
		if badge.Trigger != trigger || count < badge.Threshold {
			continue
		}
		granted, err := s.badgeRepo.Grant(ctx, personID, badge.ID)
		if err != nil {
			return fmt.Errorf("grant badge %s to %s: %w", badge.Code, personID, err)
		}
		if granted {
			s.logger.Info("badge granted", "person_id", personID, "badge", badge.Code)
		}
	}
	return nil
}
