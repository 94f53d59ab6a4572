package scheduler

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitemonitor/internal/discovery"
	"github.com/hamed0406/sitemonitor/internal/domain"
	"github.com/hamed0406/sitemonitor/internal/notify"
	"github.com/hamed0406/sitemonitor/internal/probe"
	"github.com/hamed0406/sitemonitor/internal/repo"
	"github.com/hamed0406/sitemonitor/internal/report"
)

// TestURL and TestStatus describe the synthetic alert sent in test mode.
const (
	TestURL    = "TEST-PAGE"
	TestStatus = 500
)

// Summary describes one finished pass.
type Summary struct {
	RunID      string
	Checked    int
	Healthy    int
	Unhealthy  int
	Down       int
	Recovered  int
	NotSent    int // cancelled before the request left; nothing recorded
	FeedErrors int
	Degraded   bool // the store could not be read and the pass started empty

	// Transitions lists every detected event of the pass, ordered by URL.
	Transitions []domain.TransitionEvent
}

// Runner executes one monitoring pass: discover, probe and classify each
// URL, then persist and report. Probes run on a bounded pool; each URL is
// handled by exactly one worker, so its alert always compares against its
// own previous stored outcome.
type Runner struct {
	Logger      *zap.Logger
	Store       repo.HistoryStore
	Discoverer  discovery.Discoverer
	Checker     probe.Checker
	Alerts      *notify.Dispatcher
	Concurrency int
	Now         func() time.Time

	// Optional collaborators.
	Reporter report.Reporter
	Progress io.Writer
	// Diagnose is consulted for transport failures only.
	Diagnose func(ctx context.Context, url string) probe.DNSStatus
}

func NewRunner(
	logger *zap.Logger,
	store repo.HistoryStore,
	disc discovery.Discoverer,
	checker probe.Checker,
	alerts *notify.Dispatcher,
	concurrency int,
) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Logger:      logger,
		Store:       store,
		Discoverer:  disc,
		Checker:     checker,
		Alerts:      alerts,
		Concurrency: concurrency,
		Now:         time.Now,
	}
}

// pass is the mutable state of one Run.
type pass struct {
	mu      sync.Mutex
	db      domain.Database
	stamp   time.Time
	log     *zap.Logger
	summary Summary
}

// Run performs one pass. The only error it returns is a failed store write;
// everything else degrades and is logged.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	p := &pass{stamp: r.Now().UTC()}
	p.summary.RunID = uuid.NewString()
	p.log = r.Logger.With(zap.String("run_id", p.summary.RunID))

	db, err := r.Store.Load(ctx)
	if err != nil {
		p.log.Warn("store_degraded", zap.Error(err))
		p.summary.Degraded = true
	}
	if db == nil {
		db = domain.NewDatabase()
	}
	p.db = db

	var found []string
	if r.Discoverer != nil {
		res := r.Discoverer.Discover(ctx)
		found = res.URLs
		p.summary.FeedErrors = len(multierr.Errors(res.Errs))
	}
	urls := discovery.Merge(found, db)
	p.log.Info("run_started",
		zap.Int("discovered", len(found)),
		zap.Int("known", len(db)),
		zap.Int("checking", len(urls)),
		zap.Int("concurrency", r.Concurrency),
	)

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup
	for _, u := range urls {
		sem <- struct{}{}
		wg.Add(1)
		go func(url string) {
			defer func() { <-sem }()
			defer wg.Done()
			r.checkOne(ctx, p, url)
		}(u)
	}
	wg.Wait()
	sort.Slice(p.summary.Transitions, func(i, j int) bool {
		return p.summary.Transitions[i].URL < p.summary.Transitions[j].URL
	})
	if r.Progress != nil {
		fmt.Fprintln(r.Progress)
	}

	if err := r.Store.Save(ctx, p.db); err != nil {
		p.log.Error("store_write_failed", zap.Error(err))
		return p.summary, fmt.Errorf("persist history: %w", err)
	}

	if r.Reporter != nil {
		if err := r.Reporter.Report(ctx, p.db.Snapshot()); err != nil {
			p.log.Error("report_failed", zap.Error(err))
		}
	}

	p.log.Info("run_finished",
		zap.Int("checked", p.summary.Checked),
		zap.Int("healthy", p.summary.Healthy),
		zap.Int("unhealthy", p.summary.Unhealthy),
		zap.Int("down", p.summary.Down),
		zap.Int("recovered", p.summary.Recovered),
		zap.Int("not_sent", p.summary.NotSent),
		zap.Int("feed_errors", p.summary.FeedErrors),
	)
	return p.summary, nil
}

// checkOne runs probe -> classify -> alert -> append for a single URL.
func (r *Runner) checkOne(ctx context.Context, p *pass, url string) {
	res := r.Checker.Check(ctx, url)
	if res.NotSent {
		p.mu.Lock()
		p.summary.NotSent++
		p.mu.Unlock()
		p.log.Warn("probe_not_sent", zap.String("url", url), zap.String("reason", res.Reason))
		return
	}
	out := res.Outcome
	out.Timestamp = p.stamp
	if out.StatusCode == 0 {
		out.LatencyMS = 0
	}

	p.mu.Lock()
	var last *domain.ProbeOutcome
	if prev, ok := p.db[url].Last(); ok {
		last = &prev
	}
	p.mu.Unlock()

	ev, fire := Detect(url, last, out)
	if fire {
		r.Alerts.Dispatch(ctx, ev)
	}

	p.mu.Lock()
	p.db.Append(url, out)
	p.summary.Checked++
	if out.Healthy() {
		p.summary.Healthy++
	} else {
		p.summary.Unhealthy++
	}
	if fire {
		p.summary.Transitions = append(p.summary.Transitions, ev)
		switch ev.Kind {
		case domain.TransitionDown:
			p.summary.Down++
		case domain.TransitionRecovered:
			p.summary.Recovered++
		}
	}
	if r.Progress != nil {
		marker := "x"
		if out.Healthy() {
			marker = "•"
		}
		io.WriteString(r.Progress, marker)
	}
	p.mu.Unlock()

	fields := []zap.Field{
		zap.String("url", url),
		zap.Int("status", out.StatusCode),
		zap.Int64("latency_ms", out.LatencyMS),
		zap.String("reason", res.Reason),
	}
	if fire {
		fields = append(fields, zap.String("transition", string(ev.Kind)))
	}
	if out.StatusCode == 0 {
		if r.Diagnose != nil {
			dns := r.Diagnose(ctx, url)
			fields = append(fields,
				zap.String("dns_class", dns.Class),
				zap.String("cname", dns.CNAME),
				zap.Strings("nameservers", dns.Nameservers),
				zap.String("resolver_error", dns.ResolverError),
			)
		}
		p.log.Warn("probe_failed", fields...)
		return
	}
	p.log.Debug("probe_checked", fields...)
}

// SendTest dispatches one synthetic DOWN alert. It reports whether a
// notification target was configured; delivery failures are only logged.
func (r *Runner) SendTest(ctx context.Context) bool {
	if !r.Alerts.Enabled() {
		r.Logger.Warn("test_alert_skipped", zap.String("reason", "no notification target configured"))
		return false
	}
	r.Alerts.Dispatch(ctx, domain.TransitionEvent{
		URL:            TestURL,
		PreviousStatus: domain.HealthyStatus,
		NewStatus:      TestStatus,
		Kind:           domain.TransitionDown,
	})
	return true
}
