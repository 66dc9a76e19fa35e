package mountaincar

import (
	"testing"

	"github.com/samuelfneumann/goddpg/utils/floatutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixedStarter always starts episodes from the same state
type fixedStarter struct {
	state []float64
}

func (f fixedStarter) Start() *mat.VecDense {
	return mat.NewVecDense(len(f.state), floatutils.Duplicate(f.state))
}

func TestContinuousEpisodeTimeout(t *testing.T) {
	maxSteps := 10
	task := NewGoal(fixedStarter{[]float64{-0.5, 0.0}}, maxSteps,
		GoalPosition)

	car, firstStep, err := NewContinuous(task, 0.99)
	require.NoError(t, err)
	require.True(t, firstStep.First())

	var step = firstStep
	var last bool
	for !last {
		step, last, err = car.Step(mat.NewVecDense(1, []float64{0.0}))
		require.NoError(t, err)
	}

	assert.Equal(t, maxSteps, step.Number)
	assert.True(t, step.Last())
	assert.True(t, step.TimedOut())
	assert.False(t, step.TerminalEnd())
}

func TestContinuousReachesGoal(t *testing.T) {
	// Start just below the goal with maximum velocity so that a
	// single push reaches the goal position
	task := NewGoal(fixedStarter{[]float64{0.44, MaxSpeed}}, 1000,
		GoalPosition)

	car, _, err := NewContinuous(task, 0.99)
	require.NoError(t, err)

	step, last, err := car.Step(mat.NewVecDense(1, []float64{1.0}))
	require.NoError(t, err)

	assert.True(t, last)
	assert.True(t, step.TerminalEnd())
	assert.Equal(t, 0.0, step.Reward)
	assert.True(t, task.AtGoal(step.Observation))
}

func TestContinuousCostToGoalReward(t *testing.T) {
	task := NewGoal(fixedStarter{[]float64{-0.5, 0.0}}, 1000, GoalPosition)

	car, _, err := NewContinuous(task, 0.99)
	require.NoError(t, err)

	step, _, err := car.Step(mat.NewVecDense(1, []float64{1.0}))
	require.NoError(t, err)

	assert.Equal(t, -1.0, step.Reward)
}

func TestContinuousClipsActions(t *testing.T) {
	start := []float64{-0.5, 0.0}

	task := NewGoal(fixedStarter{start}, 1000, GoalPosition)
	car, _, err := NewContinuous(task, 0.99)
	require.NoError(t, err)

	clippedTask := NewGoal(fixedStarter{start}, 1000, GoalPosition)
	clippedCar, _, err := NewContinuous(clippedTask, 0.99)
	require.NoError(t, err)

	// An action outside the legal bounds behaves like the bound itself
	step, _, err := car.Step(mat.NewVecDense(1, []float64{1.0}))
	require.NoError(t, err)
	clippedStep, _, err := clippedCar.Step(mat.NewVecDense(1,
		[]float64{100.0}))
	require.NoError(t, err)

	assert.True(t, mat.Equal(step.Observation, clippedStep.Observation))
}

func TestContinuousStateStaysInBounds(t *testing.T) {
	task := NewGoal(fixedStarter{[]float64{-0.5, 0.0}}, 200, GoalPosition)

	car, _, err := NewContinuous(task, 0.99)
	require.NoError(t, err)

	var last bool
	var step = car.CurrentTimeStep()
	for !last {
		step, last, err = car.Step(mat.NewVecDense(1, []float64{-1.0}))
		require.NoError(t, err)

		position := step.Observation.AtVec(0)
		velocity := step.Observation.AtVec(1)
		assert.GreaterOrEqual(t, position, MinPosition)
		assert.LessOrEqual(t, position, MaxPosition)
		assert.GreaterOrEqual(t, velocity, -MaxSpeed)
		assert.LessOrEqual(t, velocity, MaxSpeed)
	}
}
