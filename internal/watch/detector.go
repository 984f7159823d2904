// Package watch runs the monitoring flow: schedule ticks per target, fetch
// and extract, detect value changes, and hand changes to the notifier.
package watch

import (
	"sync"
	"time"
)

// Outcome classifies one detection against a target's stored state.
type Outcome int

const (
	// FirstObservation means no prior state existed for the target. The
	// value is recorded but no notification is sent, so a fresh start
	// never produces a spurious alert.
	FirstObservation Outcome = iota
	// Unchanged means the value equals the stored one.
	Unchanged
	// Changed means the value differs from the stored one.
	Changed
)

func (o Outcome) String() string {
	switch o {
	case FirstObservation:
		return "first_observation"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	}
	return "unknown"
}

// Detection is the result of one comparison.
type Detection struct {
	Outcome Outcome
	Old     *string // prior value; nil on FirstObservation or a null prior
	New     *string
}

// ObservationState is the per-target memory of the last successfully
// extracted value. It lives in process memory for the runner's lifetime.
type ObservationState struct {
	Target     string
	LastResult *string
	ObservedAt time.Time
}

// Detector compares new extraction results against per-target state.
// Comparison is null-safe: a transition between a null and a concrete
// value counts as Changed, except on the very first observation.
type Detector struct {
	mu     sync.Mutex
	states map[string]*ObservationState
}

func NewDetector() *Detector {
	return &Detector{states: make(map[string]*ObservationState)}
}

// Detect records value for the target and reports how it relates to the
// previously observed one. Only successful extractions reach this point;
// failed ticks never mutate state.
func (d *Detector) Detect(target string, value *string) Detection {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	st, ok := d.states[target]
	if !ok {
		d.states[target] = &ObservationState{
			Target:     target,
			LastResult: copyValue(value),
			ObservedAt: now,
		}
		return Detection{Outcome: FirstObservation, New: value}
	}

	if equalValue(st.LastResult, value) {
		st.ObservedAt = now
		return Detection{Outcome: Unchanged, New: value}
	}

	old := st.LastResult
	st.LastResult = copyValue(value)
	st.ObservedAt = now
	return Detection{Outcome: Changed, Old: old, New: value}
}

// State returns a snapshot of the target's observation state.
func (d *Detector) State(target string) (ObservationState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.states[target]
	if !ok {
		return ObservationState{}, false
	}
	return ObservationState{
		Target:     st.Target,
		LastResult: copyValue(st.LastResult),
		ObservedAt: st.ObservedAt,
	}, true
}

func copyValue(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func equalValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
