package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventReminderEmailData holds data for the pre-launch reminder email, the
// fallback channel for participants without a push token.
type EventReminderEmailData struct {
	Email      string
	PersonName string
	EventName  string
	EventCode  string
	StartTime  string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendEventReminder(ctx context.Context, data *EventReminderEmailData) error
}
