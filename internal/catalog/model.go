/*
Package catalog provides the immutable set of work/rest interval models
available to the scheduler.

A model describes one interval configuration: how long to work, how long
to rest, and optionally how many cycles make up a full session and how
long the closing long rest lasts. Models come from a built-in list plus
an optional user file (~/.cadence-models.yaml) and are never mutated
after load.
*/
package catalog

import "time"

// WorkRestModel is a single named interval configuration.
//
// Cycles and LongRestMinutes are optional; zero means "not set". A model
// without cycles runs open-ended (work/short-rest forever), a model with
// cycles ends its session after the long rest that follows the final
// work interval.
type WorkRestModel struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	WorkMinutes     int    `json:"workMinutes" yaml:"workMinutes"`
	RestMinutes     int    `json:"restMinutes" yaml:"restMinutes"`
	Cycles          int    `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	LongRestMinutes int    `json:"longRestMinutes,omitempty" yaml:"longRestMinutes,omitempty"`
	Category        string `json:"category,omitempty" yaml:"category,omitempty"`
}

// WorkDuration returns the work interval as a time.Duration.
func (m WorkRestModel) WorkDuration() time.Duration {
	return time.Duration(m.WorkMinutes) * time.Minute
}

// RestDuration returns the short rest interval as a time.Duration.
func (m WorkRestModel) RestDuration() time.Duration {
	return time.Duration(m.RestMinutes) * time.Minute
}

// LongRestDuration returns the long rest interval, or zero if the model
// has none.
func (m WorkRestModel) LongRestDuration() time.Duration {
	return time.Duration(m.LongRestMinutes) * time.Minute
}

// HasLongRest reports whether the model defines a closing long rest.
// Both a cycle count and a long rest duration are required.
func (m WorkRestModel) HasLongRest() bool {
	return m.Cycles > 0 && m.LongRestMinutes > 0
}

// PlannedMinutes returns the total planned session length for a cycled
// model: every work interval plus the short rests between them. The
// closing long rest is recovery after the planned work, not part of it.
// Returns 0 for open-ended models.
func (m WorkRestModel) PlannedMinutes() int {
	if m.Cycles <= 0 {
		return 0
	}
	return m.WorkMinutes*m.Cycles + m.RestMinutes*(m.Cycles-1)
}

// InferredWorkType derives the kind of work a model is shaped for from
// its durations alone. Used to spot a mismatch between the running
// model and the detected work type.
func (m WorkRestModel) InferredWorkType() string {
	switch {
	case m.WorkMinutes >= 60:
		return "deep_coding"
	case m.RestMinutes >= 20:
		return "debugging"
	case m.RestMinutes <= 5:
		return "administrative"
	default:
		return "creative"
	}
}
