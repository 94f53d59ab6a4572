package notify

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

// Alert is one transition notification.
type Alert struct {
	URL    string
	Status int
	Kind   domain.TransitionKind
}

// AlertFor renders a transition as the message sent to every target.
func AlertFor(ev domain.TransitionEvent) Alert {
	return Alert{URL: ev.URL, Status: ev.NewStatus, Kind: ev.Kind}
}

func (a Alert) Title() string {
	if a.Kind == domain.TransitionRecovered {
		return "Page Recovered"
	}
	return "Page Down"
}

// Slug is the last path segment of the URL, used as the product name.
func (a Alert) Slug() string {
	return a.URL[strings.LastIndex(a.URL, "/")+1:]
}

func (a Alert) StatusText() string { return strconv.Itoa(a.Status) }

type Notifier interface {
	Send(ctx context.Context, a Alert) error
}

// Multi sends to every notifier and combines their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, a Alert) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, a))
	}
	return errs
}

// FromWebhooks builds the configured notifiers. It returns nil when no
// target is configured, which makes dispatch a no-op.
func FromWebhooks(discordURL, slackURL string) Notifier {
	var m Multi
	if discordURL != "" {
		m = append(m, NewDiscord(discordURL))
	}
	if slackURL != "" {
		m = append(m, NewSlack(slackURL))
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}
