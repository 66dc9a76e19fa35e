// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/goddpg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end
type Ender interface {
	// End takes the most recent TimeStep in the environment and
	// returns whether it is the last in the episode. If so, End
	// modifies the TimeStep in place so that its StepType field is
	// timestep.Last and its EndType field describes how the episode
	// ended.
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme and start state distribution for
// taking actions in some environment. Tasks also determine when an
// episode ends due to the task being completed or failed.
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking an action in some
	// state, resulting in some next state
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether the argument state is the goal state
	AtGoal(state mat.Matrix) bool

	// Min returns the minimum attainable reward over all timesteps
	Min() float64

	// Max returns the maximum attainable reward over all timesteps
	Max() float64

	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task

	// Reset resets the environment, begins a new episode, and returns
	// the first timestep of the new episode
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step given an action and returns
	// the next timestep and whether it is the last in the episode
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	// CurrentTimeStep returns the current timestep of the environment
	CurrentTimeStep() timestep.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
