package notifications

import (
	"context"
	"time"

	"etdbridge/internal/config"
)

// Service sends messages to operators.
type Service interface {
	Send(ctx context.Context, msg Message) error
}

// NewService builds the transport selected by notifications.transport.
func NewService(cfg *config.Config) Service {
	n := cfg.Notifications
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	switch n.Transport {
	case config.TransportSMTP:
		return newSMTPService(n.SMTPServer, n.SMTPUser, n.SMTPPassword, n.From, timeout)
	case config.TransportNtfy:
		return newNtfyService(timeout)
	default:
		return noopService{}
	}
}

// Noop returns a Service that discards every message.
func Noop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) Send(context.Context, Message) error { return nil }
