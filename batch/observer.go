package batch

import "github.com/moyoez/localsend-uploader/types"

type EventKind int

const (
	// EventAttempt is emitted after every fetch+submit attempt of a task.
	EventAttempt EventKind = iota + 1
	// EventCompleted is emitted once per record when it reaches a terminal result.
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventAttempt:
		return "attempt"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// AttemptOutcome describes how a single attempt ended.
type AttemptOutcome string

const (
	OutcomeSucceeded AttemptOutcome = "succeeded"
	OutcomeRetrying  AttemptOutcome = "retrying"
	OutcomeFailed    AttemptOutcome = "failed"
)

// Progress is one notification. Attempt fields are set for EventAttempt,
// Completed/Total/Result for EventCompleted.
type Progress struct {
	Kind     EventKind
	Index    int
	Filename string

	Attempt int
	Outcome AttemptOutcome
	Err     error

	Completed int
	Total     int
	Result    *types.UploadResult
}

// Observer receives progress in completion order. All calls for one batch come from
// the same goroutine, so implementations need no locking for per-batch state.
type Observer interface {
	OnProgress(p Progress)
}

type ObserverFunc func(p Progress)

func (f ObserverFunc) OnProgress(p Progress) { f(p) }

// MultiObserver fans progress out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnProgress(p Progress) {
	for _, o := range m {
		if o != nil {
			o.OnProgress(p)
		}
	}
}
