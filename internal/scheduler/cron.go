package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw("cron_"+msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw("cron_"+msg, append(kv, "error", err)...)
}

// Schedule runs passes on a cron spec until ctx is cancelled. A pass that
// is still running when the next tick fires causes that tick to be skipped,
// so only one pass writes the store at a time.
func Schedule(ctx context.Context, r *Runner, spec string, runNow bool) error {
	l := cronLogger{s: r.Logger.Sugar()}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	job := func() {
		if _, err := r.Run(ctx); err != nil {
			// The next tick retries with whatever is on disk.
			r.Logger.Error("scheduled_run_failed", zap.Error(err))
		}
	}
	id, err := c.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	c.Start()
	r.Logger.Info("scheduler_started",
		zap.String("schedule", spec),
		zap.Time("next", c.Entry(id).Next),
	)
	if runNow {
		c.Entry(id).WrappedJob.Run()
	}

	<-ctx.Done()
	<-c.Stop().Done()
	r.Logger.Info("scheduler_stopped")
	return nil
}
