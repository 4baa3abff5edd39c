package notify

import (
	"context"

	"github.com/dmitrijs2005/courseauth/internal/logging"
)

// LogNotifier writes messages to the logger instead of delivering them.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, msg *Message) error {
	n.logger.Info(ctx, "email not delivered, no outbox configured", "to", msg.To, "subject", msg.Subject)
	n.logger.Debug(ctx, "email body", "to", msg.To, "html", msg.HTML)
	return nil
}
