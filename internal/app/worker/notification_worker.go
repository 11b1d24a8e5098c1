package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/mailer"
	"github.com/Ali-LB/dbcc/internal/platform/metrics"
	"github.com/Ali-LB/dbcc/internal/platform/queue"
)

// NotificationSource is the consuming side of the notification queue.
type NotificationSource interface {
	Name() string
	Pop(ctx context.Context, timeout time.Duration) (model.Notification, error)
	Requeue(ctx context.Context, n model.Notification) error
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

const popTimeout = 5 * time.Second

// NotificationWorker delivers issued tokens as links through the mailer.
type NotificationWorker struct {
	log         *slog.Logger
	source      NotificationSource
	mailer      Mailer
	baseURL     string
	maxAttempts int
}

func NewNotificationWorker(log *slog.Logger, source NotificationSource, m Mailer, baseURL string, maxAttempts int) *NotificationWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &NotificationWorker{
		log:         log,
		source:      source,
		mailer:      m,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: maxAttempts,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) {
	log := w.log.With(slog.String("op", "worker.NotificationWorker.Start"), slog.String("queue", w.source.Name()))
	log.Info("notification worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("notification worker stopping")
			return
		default:
		}

		n, err := w.source.Pop(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrQueueEmpty) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			log.Error("failed to pop notification", sl.Err(err))
			sleep(ctx, 5*time.Second) // wait before retrying on other errors
			continue
		}

		w.handle(ctx, n)
	}
}

// handle delivers one notification, requeueing it until maxAttempts.
func (w *NotificationWorker) handle(ctx context.Context, n model.Notification) {
	log := w.log.With(slog.String("user_id", n.UserID), slog.String("kind", string(n.Kind)), slog.Int("attempt", n.Attempt+1))

	msg, err := w.compose(n)
	if err != nil {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		log.Error("dropping malformed notification", sl.Err(err))
		return
	}

	if err := w.mailer.Send(ctx, msg); err != nil {
		if n.Attempt+1 >= w.maxAttempts {
			metrics.Notifications.WithLabelValues("dropped").Inc()
			log.Error("notification delivery failed, giving up", sl.Err(err))
			return
		}
		metrics.Notifications.WithLabelValues("retried").Inc()
		log.Warn("notification delivery failed, requeueing", sl.Err(err))
		if err := w.source.Requeue(ctx, n); err != nil {
			log.Error("failed to requeue notification", sl.Err(err))
		}
		return
	}

	metrics.Notifications.WithLabelValues("delivered").Inc()
	log.Debug("notification delivered")
}

func (w *NotificationWorker) compose(n model.Notification) (mailer.Message, error) {
	if n.Email == "" || n.Token == "" {
		return mailer.Message{}, fmt.Errorf("notification for user %q has no recipient or token", n.UserID)
	}

	greeting := "Hello"
	if n.FirstName != "" {
		greeting = "Hello " + n.FirstName
	}

	switch n.Kind {
	case model.TokenKindEmailConfirmation:
		link := w.link("/auth/confirm", n.Token)
		return mailer.Message{
			To:      n.Email,
			Subject: "Confirm your email",
			Body:    fmt.Sprintf("%s,\n\nPlease confirm your email address by opening the link below:\n%s\n", greeting, link),
			Link:    link,
		}, nil
	case model.TokenKindPasswordReset:
		link := w.link("/auth/reset", n.Token)
		return mailer.Message{
			To:      n.Email,
			Subject: "Reset your password",
			Body:    fmt.Sprintf("%s,\n\nUse the link below to choose a new password. The link can be used once.\n%s\n", greeting, link),
			Link:    link,
		}, nil
	default:
		return mailer.Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}

func (w *NotificationWorker) link(path, token string) string {
	return w.baseURL + path + "?token=" + url.QueryEscape(token)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
