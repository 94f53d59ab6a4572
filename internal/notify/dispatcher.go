package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

// Dispatcher sends transition alerts best-effort. Delivery failures are
// logged as alert_delivery_failed and never reach the caller.
type Dispatcher struct {
	Notifier Notifier // nil disables alerting
	Logger   *zap.Logger
	Timeout  time.Duration
}

func NewDispatcher(n Notifier, logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Notifier: n, Logger: logger, Timeout: timeout}
}

func (d *Dispatcher) Enabled() bool { return d != nil && d.Notifier != nil }

func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.TransitionEvent) {
	if !d.Enabled() {
		return
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	fields := []zap.Field{
		zap.String("url", ev.URL),
		zap.Int("previous_status", ev.PreviousStatus),
		zap.Int("status", ev.NewStatus),
		zap.String("kind", string(ev.Kind)),
	}
	if err := d.Notifier.Send(ctx, AlertFor(ev)); err != nil {
		d.Logger.Warn("alert_delivery_failed", append(fields, zap.Error(err))...)
		return
	}
	d.Logger.Info("alert_sent", fields...)
}
