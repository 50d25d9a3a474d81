// internal/common/notify/notify.go
package notify

import (
	"context"
	"fmt"

	"stock-backoffice/internal/common/config"
	"stock-backoffice/internal/common/logger"
)

// Notifier delivers a user-visible message. It satisfies errors.Notifier.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// LogNotifier writes notifications to the structured log. It is the default
// channel for the command line client.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.ForComponent(log, "notify")}
}

func (n *LogNotifier) Notify(_ context.Context, subject, message string) error {
	n.logger.Warn("notification", map[string]interface{}{
		"subject": subject,
		"message": message,
	})
	return nil
}

// New builds the notifier selected by cfg.Channel.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (Notifier, error) {
	switch cfg.Channel {
	case "", "log":
		return NewLogNotifier(log), nil
	case "sns":
		return NewSNSNotifier(ctx, cfg.AWS.Region, cfg.SNS.TopicARN)
	case "ses":
		return NewSESNotifier(ctx, cfg.AWS.Region, cfg.SES.FromEmail, cfg.SES.To)
	default:
		return nil, fmt.Errorf("unknown notification channel %q", cfg.Channel)
	}
}
