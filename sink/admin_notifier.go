package sink

import (
	"context"
	"gatekeeper/contract"
	"gatekeeper/domain"
	"gatekeeper/observability"
	"log/slog"
	"time"
)

var _ contract.Notifier = (*AdminNotifier)(nil)

// AdminNotifier is the best-effort operator channel. Notify only enqueues;
// Run drains the queue and talks to the platform.
type AdminNotifier struct {
	platform contract.Platform
	dest     domain.AdminDestination
	log      *slog.Logger
	metrics  *observability.Metrics
	queue    chan string
	timeout  time.Duration
}

func NewAdminNotifier(
	platform contract.Platform,
	dest domain.AdminDestination,
	log *slog.Logger,
	metrics *observability.Metrics,
	bufferSize int,
	timeout time.Duration,
) *AdminNotifier {
	return &AdminNotifier{
		platform: platform,
		dest:     dest,
		log:      log,
		metrics:  metrics,
		queue:    make(chan string, bufferSize),
		timeout:  timeout,
	}
}

// Notify never blocks: when the buffer is full the message is dropped.
func (n *AdminNotifier) Notify(text string) {
	if n.dest.IsZero() {
		n.log.Debug("No admin destination configured, notification skipped")
		return
	}
	select {
	case n.queue <- text:
	default:
		n.metrics.ObserveNotifierDrop()
		n.log.Warn("Admin notification dropped, buffer is full", "capacity", cap(n.queue))
	}
}

func (n *AdminNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-n.queue:
			n.deliver(ctx, text)
		}
	}
}

func (n *AdminNotifier) deliver(ctx context.Context, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.platform.SendToAdmin(sendCtx, n.dest, text); err != nil {
		n.log.Warn("Unable to deliver admin notification", "error", err)
	}
}
