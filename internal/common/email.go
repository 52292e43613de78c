package common

// EmailSender is the outbound channel the notification delivery worker pushes
// through. Implementations are external; the worker treats a send error as a
// retryable failure.
type EmailSender interface {
	Send(to, subject, body string) error
}

// Email is one message captured by InMemoryEmail.
type Email struct {
	To      string
	Subject string
	Body    string
}

// InMemoryEmail records sent messages for assertions in tests.
type InMemoryEmail struct {
	Outbox []Email
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, body string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, Body: body})
	return nil
}

// NopEmailSender drops every message. Used when email delivery is disabled.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
