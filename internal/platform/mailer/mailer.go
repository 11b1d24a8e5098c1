package mailer

import (
	"context"
	"log/slog"
)

type Message struct {
	To      string
	Subject string
	Body    string
	Link    string
}

// LogMailer prints messages instead of sending them. It stands in for an SMTP
// relay in development and single-node deployments.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.InfoContext(ctx, "email sent",
		slog.String("op", "mailer.LogMailer.Send"),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("link", msg.Link),
	)
	return nil
}
