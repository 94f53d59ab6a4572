package scheduler

import "github.com/hamed0406/sitemonitor/internal/domain"

// Classify compares a URL's previous outcome with the new one. Only the
// 200 / non-200 boundary counts; 404 -> 500 is not a transition. A nil
// previous outcome (first observation) never transitions.
func Classify(last *domain.ProbeOutcome, cur domain.ProbeOutcome) (domain.TransitionKind, bool) {
	if last == nil {
		return "", false
	}
	switch {
	case last.Healthy() && !cur.Healthy():
		return domain.TransitionDown, true
	case !last.Healthy() && cur.Healthy():
		return domain.TransitionRecovered, true
	}
	return "", false
}

// Detect wraps Classify and builds the event to dispatch for url.
func Detect(url string, last *domain.ProbeOutcome, cur domain.ProbeOutcome) (domain.TransitionEvent, bool) {
	kind, ok := Classify(last, cur)
	if !ok {
		return domain.TransitionEvent{}, false
	}
	return domain.TransitionEvent{
		URL:            url,
		PreviousStatus: last.StatusCode,
		NewStatus:      cur.StatusCode,
		Kind:           kind,
	}, true
}
