package cancelpolicy

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/thrasher-corp/blotter/log"
)

// Events lists every event in the order it is raised within a day
var Events = []Event{DayStart, BarStart, BarEnd, DayEnd}

// String implements the stringer interface
func (e Event) String() string {
	return string(e)
}

// ShouldCancel is true at the day end event only
func (p *EODCancel) ShouldCancel(e Event) (bool, error) {
	return e == DayEnd, nil
}

// WarnOnCancel returns whether cancellations should be logged as warnings
func (p *EODCancel) WarnOnCancel() bool {
	return p.Warn
}

// Name returns the policy name
func (p *EODCancel) Name() string {
	return "eod"
}

// ShouldCancel is always false
func (NeverCancel) ShouldCancel(Event) (bool, error) {
	return false, nil
}

// WarnOnCancel is always false
func (NeverCancel) WarnOnCancel() bool {
	return false
}

// Name returns the policy name
func (NeverCancel) Name() string {
	return "never"
}

// NewBarCount returns a policy cancelling every n bars
func NewBarCount(n int64, warn bool) (*BarCount, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidBarCount, n)
	}
	return &BarCount{N: n, Warn: warn}, nil
}

// ShouldCancel counts bar end events and fires on every Nth
func (p *BarCount) ShouldCancel(e Event) (bool, error) {
	if e != BarEnd {
		return false, nil
	}
	p.bars++
	return p.bars%p.N == 0, nil
}

// WarnOnCancel returns whether cancellations should be logged as warnings
func (p *BarCount) WarnOnCancel() bool {
	return p.Warn
}

// Name returns the policy name
func (p *BarCount) Name() string {
	return "bar-count"
}

// State returns the elapsed bar counter
func (p *BarCount) State() map[string]int64 {
	return map[string]int64{"bars": p.bars}
}

// Restore sets the elapsed bar counter
func (p *BarCount) Restore(s map[string]int64) error {
	for k, v := range s {
		if k != "bars" {
			return fmt.Errorf("%w: %s", errUnknownState, k)
		}
		p.bars = v
	}
	return nil
}

// NewScript compiles source into a scripted policy
func NewScript(source string, timeout time.Duration, warn bool) (*Script, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errEmptyScript
	}
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	s := tengo.NewScript([]byte(source))
	for name, val := range map[string]any{
		"event":  "",
		"state":  map[string]any{},
		"cancel": false,
	} {
		if err := s.Add(name, val); err != nil {
			return nil, Error{Action: "Add: " + name, Cause: err}
		}
	}
	compiled, err := s.Compile()
	if err != nil {
		return nil, Error{Action: "Compile", Cause: err}
	}
	return &Script{
		Source:   source,
		Timeout:  timeout,
		Warn:     warn,
		compiled: compiled,
		state:    map[string]int64{},
	}, nil
}

// LoadScript reads a policy script from disk
func LoadScript(path string, timeout time.Duration, warn bool) (*Script, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, Error{Action: "Load: " + path, Cause: err}
	}
	return NewScript(string(code), timeout, warn)
}

// ShouldCancel runs the script for the event and returns its cancel global.
// Counters written to state persist to the next event.
func (p *Script) ShouldCancel(e Event) (bool, error) {
	p.m.Lock()
	defer p.m.Unlock()
	state := make(map[string]any, len(p.state))
	for k, v := range p.state {
		state[k] = v
	}
	for name, val := range map[string]any{
		"event":  string(e),
		"state":  state,
		"cancel": false,
	} {
		if err := p.compiled.Set(name, val); err != nil {
			return false, Error{Action: "Set: " + name, Cause: err}
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()
	if err := p.compiled.RunContext(ctx); err != nil {
		return false, Error{Action: "Run: " + string(e), Cause: err}
	}

	result := p.compiled.Get("cancel")
	if result.ValueType() != "bool" {
		return false, Error{Action: "Result", Cause: fmt.Errorf("%w: got %s", errScriptResult, result.ValueType())}
	}
	next := map[string]int64{}
	for k, v := range p.compiled.Get("state").Map() {
		switch n := v.(type) {
		case int64:
			next[k] = n
		case int:
			next[k] = int64(n)
		default:
			log.Debugf(log.Policy, "script state key %q holds non integer %T, dropped", k, v)
		}
	}
	p.state = next
	return result.Bool(), nil
}

// WarnOnCancel returns whether cancellations should be logged as warnings
func (p *Script) WarnOnCancel() bool {
	return p.Warn
}

// Name returns the policy name
func (p *Script) Name() string {
	return "script"
}

// State returns a copy of the script counters
func (p *Script) State() map[string]int64 {
	p.m.Lock()
	defer p.m.Unlock()
	out := make(map[string]int64, len(p.state))
	for k, v := range p.state {
		out[k] = v
	}
	return out
}

// Restore replaces the script counters
func (p *Script) Restore(s map[string]int64) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.state = make(map[string]int64, len(s))
	for k, v := range s {
		p.state[k] = v
	}
	return nil
}

func (e Error) Error() string {
	return fmt.Sprintf("cancel policy script: (ACTION) %s %v", e.Action, e.Cause)
}

// Unwrap returns e.Cause meeting errors interface requirements.
func (e Error) Unwrap() error {
	return e.Cause
}
