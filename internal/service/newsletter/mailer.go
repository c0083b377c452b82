package newsletter

import (
	"context"
	"fmt"
	"log/slog"
)

// Message is one outgoing mail.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string // Plain-text alternative, filled by Renderer
}

// Mailer sends mails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes mails to the log instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	m.Logger.Info("email", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}

func confirmationMessage(mail ConfirmationMail) (Message, error) {
	return defaultRenderer.Render(Message{
		To:      mail.To,
		Subject: "Confirm your subscription",
		HTML: fmt.Sprintf(
			`<p>Thanks for your interest! Please confirm your newsletter subscription:</p>`+
				`<p><a href="%s">Confirm Subscription</a></p>`+
				`<p>If you did not request this, ignore this email. You can unsubscribe any time: <a href="%s">Unsubscribe</a></p>`,
			mail.ConfirmURL, mail.UnsubscribeURL,
		),
	})
}
