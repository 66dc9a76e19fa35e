package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single environmental transition
// (s, a, r, s') together with a flag denoting whether the transition
// ended its episode. Transitions are value types. Once created, they
// are never mutated, so they can be safely stored in replay buffers.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	NextState mat.Vector
	Done      bool
}

// NewTransition returns the transition between two adjacent timesteps,
// where action was taken on step to reach nextStep. The transition is
// marked done if nextStep ends its episode, whether by reaching a
// terminal state or by timing out.
func NewTransition(step TimeStep, action mat.Vector,
	nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: nextStep.Observation,
		Done:      nextStep.Last(),
	}
}

// StateDims returns the number of state features in the transition
func (t Transition) StateDims() int {
	return t.State.Len()
}

// ActionDims returns the number of action dimensions in the transition
func (t Transition) ActionDims() int {
	return t.Action.Len()
}
