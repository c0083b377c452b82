package newsletter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
)

type memSubscribers struct {
	rows map[string]*models.Subscriber
}

func (m *memSubscribers) find(match func(*models.Subscriber) bool) (*models.Subscriber, error) {
	for _, s := range m.rows {
		if match(s) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubscribers) GetByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	return m.find(func(s *models.Subscriber) bool { return s.Email == email })
}

func (m *memSubscribers) GetByToken(_ context.Context, token string) (*models.Subscriber, error) {
	return m.find(func(s *models.Subscriber) bool { return s.Token == token })
}

func (m *memSubscribers) CreateSubscriber(_ context.Context, sub *models.Subscriber) error {
	sub.ID = fmt.Sprintf("s%d", len(m.rows)+1)
	cp := *sub
	m.rows[sub.ID] = &cp
	return nil
}

func (m *memSubscribers) UpdateToken(_ context.Context, id, token string) error {
	m.rows[id].Token = token
	return nil
}

func (m *memSubscribers) MarkConfirmed(_ context.Context, id string) error {
	m.rows[id].Confirmed = true
	return nil
}

func (m *memSubscribers) DeleteSubscriber(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

type recordingMailer struct {
	sent []Message
}

func (r *recordingMailer) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func newTestService() (*Service, *memSubscribers, *recordingMailer) {
	repo := &memSubscribers{rows: map[string]*models.Subscriber{}}
	mailer := &recordingMailer{}
	svc := NewService(repo, InlineQueue{Mailer: mailer}, "http://app.test/", slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, mailer
}

func tokenFrom(t *testing.T, msg Message) string {
	t.Helper()
	_, rest, ok := strings.Cut(msg.HTML, "/api/newsletter/confirm?token=")
	if !ok {
		t.Fatalf("no confirm link in %q", msg.HTML)
	}
	token, _, _ := strings.Cut(rest, `"`)
	return token
}

func TestSubscribeConfirmUnsubscribe(t *testing.T) {
	svc, repo, mailer := newTestService()
	ctx := context.Background()

	status, err := svc.Subscribe(ctx, "  Ada@Example.com ")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if status != models.SubscribePending {
		t.Errorf("status = %q, want %q", status, models.SubscribePending)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "ada@example.com" {
		t.Fatalf("sent = %+v", mailer.sent)
	}

	// Resubscribing before confirming rotates the token.
	if _, err := svc.Subscribe(ctx, "ada@example.com"); err != nil {
		t.Fatalf("second Subscribe() error = %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.rows))
	}
	stale, fresh := tokenFrom(t, mailer.sent[0]), tokenFrom(t, mailer.sent[1])
	if stale == fresh {
		t.Fatal("token was not rotated")
	}

	if got, _ := svc.Confirm(ctx, stale); got != models.ConfirmInvalid {
		t.Errorf("Confirm(stale) = %q, want invalid", got)
	}
	if got, _ := svc.Confirm(ctx, fresh); got != models.ConfirmConfirmed {
		t.Errorf("Confirm(fresh) = %q, want confirmed", got)
	}
	if got, _ := svc.Confirm(ctx, fresh); got != models.ConfirmAlready {
		t.Errorf("Confirm again = %q, want already", got)
	}

	if got, _ := svc.Subscribe(ctx, "ada@example.com"); got != models.SubscribeAlreadyConfirmed {
		t.Errorf("Subscribe after confirm = %q", got)
	}

	ok, err := svc.Unsubscribe(ctx, fresh)
	if err != nil || !ok {
		t.Fatalf("Unsubscribe() = %v, %v", ok, err)
	}
	if len(repo.rows) != 0 {
		t.Errorf("rows = %d after unsubscribe", len(repo.rows))
	}
	if ok, _ := svc.Unsubscribe(ctx, fresh); ok {
		t.Error("second Unsubscribe() reported success")
	}
}

func TestSubscribeInvalidEmail(t *testing.T) {
	svc, _, mailer := newTestService()

	for _, email := range []string{"", "nope", "a@b"} {
		_, err := svc.Subscribe(context.Background(), email)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Subscribe(%q) error = %v, want validation", email, err)
		}
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d mails", len(mailer.sent))
	}
}

func TestHandleConfirmation(t *testing.T) {
	mailer := &recordingMailer{}
	handle := HandleConfirmation(mailer)

	payload := []byte(`{"to":"ada@example.com","confirmUrl":"c","unsubscribeUrl":"u"}`)
	if err := handle(context.Background(), asynq.NewTask(TypeConfirmationMail, payload)); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].Subject != "Confirm your subscription" {
		t.Errorf("sent = %+v", mailer.sent)
	}

	err := handle(context.Background(), asynq.NewTask(TypeConfirmationMail, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("malformed payload error = %v, want SkipRetry", err)
	}
}

func TestRendererSanitizesAndAddsText(t *testing.T) {
	msg, err := NewRenderer().Render(Message{
		To:      "a@example.com",
		Subject: "Hi",
		HTML:    `<p>Hello <strong>there</strong></p><script>alert(1)</script><p><a href="https://example.com/c">Confirm</a></p>`,
	})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "Hello **there**")
	assert.Contains(t, msg.Text, "[Confirm](https://example.com/c)")
	assert.NotContains(t, msg.Text, "alert")
}

func TestConfirmationMessageLinks(t *testing.T) {
	msg, err := confirmationMessage(ConfirmationMail{
		To:             "a@example.com",
		ConfirmURL:     "https://example.com/api/newsletter/confirm?token=abc",
		UnsubscribeURL: "https://example.com/api/newsletter/unsubscribe?token=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "Confirm your subscription", msg.Subject)
	assert.Contains(t, msg.Text, "https://example.com/api/newsletter/confirm?token=abc")
	assert.Contains(t, msg.HTML, "unsubscribe?token=abc")
}
