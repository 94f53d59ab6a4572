package domain

// TransitionKind is a crossing of the healthy/unhealthy boundary.
type TransitionKind string

const (
	TransitionDown      TransitionKind = "DOWN"
	TransitionRecovered TransitionKind = "RECOVERED"
)

// TransitionEvent is derived per URL per run and never stored.
type TransitionEvent struct {
	URL            string
	PreviousStatus int
	NewStatus      int
	Kind           TransitionKind
}
