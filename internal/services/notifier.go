package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"lumebackend/internal/domain"
)

type dispatcher struct {
	push         domain.PushSender
	emailService domain.EmailService
	appName      string
	logger       *slog.Logger
}

// NewNotificationDispatcher returns a NotificationDispatcher that sends push
// notifications to recipients with a token and falls back to email for
// recipients with only an address. emailService may be nil to disable the
// fallback channel.
func NewNotificationDispatcher(push domain.PushSender, emailService domain.EmailService, appName string, logger *slog.Logger) domain.NotificationDispatcher {
	return &dispatcher{
		push:         push,
		emailService: emailService,
		appName:      appName,
		logger:       logger,
	}
}

// Dispatch fans the pre-launch reminder out to all recipients concurrently and
// returns once every attempt has finished. Failures are logged and swallowed:
// one unreachable recipient never blocks the batch, and the caller may flip
// the notified flag as soon as Dispatch returns.
func (d *dispatcher) Dispatch(ctx context.Context, event *domain.Event, recipients []*domain.Recipient) int {
	payload := map[string]string{
		domain.PushKeyURL: fmt.Sprintf("lume://event/%s", event.EventCode),
	}

	var delivered atomic.Int64
	var wg sync.WaitGroup
	for _, rec := range recipients {
		if rec.Token == nil && rec.Email == nil {
			// Absence of any delivery address suppresses delivery.
			d.logger.Debug("recipient skipped, no delivery address",
				"event_id", event.ID, "person_id", rec.PersonID)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.send(ctx, event, rec, payload); err != nil {
				d.logger.Warn("notification delivery failed",
					"event_id", event.ID,
					"person_id", rec.PersonID,
					"error", err,
				)
				return
			}
			delivered.Add(1)
		}()
	}
	wg.Wait()
	return int(delivered.Load())
}

func (d *dispatcher) send(ctx context.Context, event *domain.Event, rec *domain.Recipient, payload map[string]string) error {
	if rec.Token != nil {
		return d.push.Send(ctx, *rec.Token, domain.EventPrelaunchTitle, payload, d.appName, event.Name)
	}
	if d.emailService == nil {
		return fmt.Errorf("person %s has no push token and email fallback is disabled", rec.PersonID)
	}
	return d.emailService.SendEventReminder(ctx, &domain.EventReminderEmailData{
		Email:      *rec.Email,
		PersonName: rec.Name,
		EventName:  event.Name,
		EventCode:  event.EventCode,
		StartTime:  event.StartTime.Format("Mon, 2 Jan 2006 15:04"),
	})
}
