package cancelpolicy

import (
	"errors"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
)

var (
	errInvalidBarCount = errors.New("bar count must be positive")
	errEmptyScript     = errors.New("script source is empty")
	errScriptResult    = errors.New("script did not produce a boolean cancel result")
	errUnknownState    = errors.New("unknown policy state key")
)

// DefaultScriptTimeout bounds a single script evaluation
const DefaultScriptTimeout = time.Second

// Event is a simulation lifecycle point at which the policy is consulted
type Event string

// Event values, in the order the engine raises them
const (
	DayStart Event = "DAY_START"
	BarStart Event = "BAR_START"
	BarEnd   Event = "BAR_END"
	DayEnd   Event = "DAY_END"
)

// Policy decides whether all open orders should be cancelled at an event
type Policy interface {
	ShouldCancel(e Event) (bool, error)
	WarnOnCancel() bool
	Name() string
}

// Stateful is implemented by policies carrying counters between events so
// that a run can be checkpointed and resumed
type Stateful interface {
	State() map[string]int64
	Restore(map[string]int64) error
}

// EODCancel cancels open orders at the end of each day
type EODCancel struct {
	Warn bool
}

// NeverCancel leaves open orders alone for the whole run
type NeverCancel struct{}

// BarCount cancels open orders every N bars
type BarCount struct {
	N    int64
	Warn bool

	bars int64
}

// Script evaluates a tengo script at every event. The script sees the
// globals event (string) and state (map of persistent integer counters) and
// must assign cancel.
type Script struct {
	Source  string
	Timeout time.Duration
	Warn    bool

	m        sync.Mutex
	compiled *tengo.Compiled
	state    map[string]int64
}

// Error wraps script failures with the stage they happened in
type Error struct {
	Action string
	Cause  error
}
