package newsletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TypeConfirmationMail is the asynq task type for confirmation mails.
const TypeConfirmationMail = "newsletter:confirmation"

const mailQueue = "mail"

// ConfirmationMail is the task payload.
type ConfirmationMail struct {
	To             string `json:"to"`
	ConfirmURL     string `json:"confirmUrl"`
	UnsubscribeURL string `json:"unsubscribeUrl"`
}

// AsynqQueue enqueues mails on Redis through asynq.
type AsynqQueue struct {
	client *asynq.Client
}

// NewAsynqQueue connects to the Redis at redisURL.
func NewAsynqQueue(redisURL string) (*AsynqQueue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse REDIS_URL: %w", err)
	}
	return &AsynqQueue{client: asynq.NewClient(opt)}, nil
}

func (q *AsynqQueue) EnqueueConfirmation(ctx context.Context, mail ConfirmationMail) error {
	payload, err := json.Marshal(mail)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeConfirmationMail, payload)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.Queue(mailQueue),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	return err
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// InlineQueue delivers immediately in the calling goroutine. Used when no
// Redis is configured.
type InlineQueue struct {
	Mailer Mailer
}

func (q InlineQueue) EnqueueConfirmation(ctx context.Context, mail ConfirmationMail) error {
	msg, err := confirmationMessage(mail)
	if err != nil {
		return err
	}
	return q.Mailer.Send(ctx, msg)
}

// Worker runs the asynq server that delivers queued mails.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker creates a worker consuming the mail queue.
func NewWorker(redisURL string, mailer Mailer, logger *slog.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse REDIS_URL: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{mailQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("mail task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeConfirmationMail, HandleConfirmation(mailer))

	return &Worker{server: srv, mux: mux, logger: logger}, nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.logger.Info("mail worker started")
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

// HandleConfirmation builds the task handler. Malformed payloads are not retried.
func HandleConfirmation(mailer Mailer) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var mail ConfirmationMail
		if err := json.Unmarshal(t.Payload(), &mail); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
		msg, err := confirmationMessage(mail)
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return mailer.Send(ctx, msg)
	}
}
