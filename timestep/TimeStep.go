// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either a first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes the reason that an episode ended. Episodes may end
// due to a timeout, where the episode is cut at some step limit, or
// due to the environment reaching a terminal state. Steps that are not
// the last in their episode have EndType Nil.
type EndType int

const (
	Nil EndType = iota
	TerminalStateReached
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation mat.Vector
	Number      int
	EndType     EndType
}

// New returns a new TimeStep with EndType Nil
func New(t StepType, r, d float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, r, d, o, n, Nil}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd ends the episode that the TimeStep is in by setting the
// TimeStep's StepType to Last and recording the reason for the
// episode ending
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.EndType = e
}

// TerminalEnd returns whether the TimeStep ended its episode by
// reaching a terminal state
func (t *TimeStep) TerminalEnd() bool {
	return t.EndType == TerminalStateReached
}

// TimedOut returns whether the TimeStep ended its episode by reaching
// a step limit
func (t *TimeStep) TimedOut() bool {
	return t.EndType == Timeout
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
