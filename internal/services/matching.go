package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"lumebackend/internal/domain"
)

type matchingService struct {
	personRepo     domain.PersonRepository
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

// NewMatchingService returns a MatchingService that draws one uniformly-random
// eligible candidate. Selection is split into "compute the eligible id set"
// (in the repository) and "uniform index draw" so the distribution is not
// biased toward records with more joined rows; the draw itself is O(1) given
// the id list, the listing is O(n) in eligible candidates.
func NewMatchingService(personRepo domain.PersonRepository, eventRepo domain.EventRepository, timeout time.Duration) domain.MatchingService {
	return &matchingService{
		personRepo:     personRepo,
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *matchingService) PickRandomPerson(ctx context.Context, anchorID string, filter domain.PersonFilter) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Friendship is a hard exclusion here, unlike list pagination where it is
	// only a sort preference.
	excluded := append([]string{}, filter.ExcludedIDs...)
	friends, err := s.personRepo.ListFriendIDs(ctx, anchorID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	excluded = append(excluded, friends...)

	ids, err := s.personRepo.FilterCandidateIDs(ctx, anchorID, filter, excluded)
	if err != nil {
		return nil, fmt.Errorf("filter person candidates: %w", err)
	}
	if len(ids) == 0 {
		return nil, domain.ErrNoCandidate
	}

	person, err := s.personRepo.GetByID(ctx, ids[rand.IntN(len(ids))])
	if err != nil {
		return nil, fmt.Errorf("load drawn person: %w", err)
	}
	return person, nil
}

func (s *matchingService) PickRandomEvent(ctx context.Context, personID string, filter domain.EventFilter) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	excluded := append([]string{}, filter.ExcludedIDs...)
	swiped, err := s.personRepo.GetSwipedEventIDs(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("get swipe history: %w", err)
	}
	excluded = append(excluded, swiped...)

	ids, err := s.eventRepo.FilterCandidateIDs(ctx, personID, filter, excluded)
	if err != nil {
		return nil, fmt.Errorf("filter event candidates: %w", err)
	}
	if len(ids) == 0 {
		return nil, domain.ErrNoCandidate
	}

	event, err := s.eventRepo.GetByID(ctx, ids[rand.IntN(len(ids))])
	if err != nil {
		return nil, fmt.Errorf("load drawn event: %w", err)
	}
	// Record the suggestion so later draws exclude it.
	if err := s.personRepo.AddSwipeRecord(ctx, personID, event.ID); err != nil {
		return nil, fmt.Errorf("record swipe: %w", err)
	}
	return event, nil
}

func (s *matchingService) RecordEventSwipe(ctx context.Context, personID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return err
	}
	return s.personRepo.AddSwipeRecord(ctx, personID, eventID)
}
