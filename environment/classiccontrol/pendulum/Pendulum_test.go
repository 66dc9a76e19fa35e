package pendulum

import (
	"math"
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

func TestContinuousHangingPendulumIsStable(t *testing.T) {
	// A pendulum hanging straight down with no velocity should stay
	// down when no torque is applied
	task := NewSwingUp(fixedStarter{[]float64{math.Pi, 0.0}}, 1000)

	pendulum, _, err := NewContinuous(task, 0.99)
	require.NoError(t, err)

	step, last, err := pendulum.Step(mat.NewVecDense(1, []float64{0.0}))
	require.NoError(t, err)

	assert.False(t, last)
	assert.InDelta(t, 0.0, step.Observation.AtVec(1), 1e-10)
	assert.InDelta(t, -1.0, step.Reward, 1e-10)
}

func TestContinuousEpisodeTimeout(t *testing.T) {
	maxSteps := 25
	task := NewSwingUp(fixedStarter{[]float64{math.Pi, 0.0}}, maxSteps)

	pendulum, firstStep, err := NewContinuous(task, 0.99)
	require.NoError(t, err)
	require.True(t, firstStep.First())

	var step = firstStep
	var last bool
	for !last {
		step, last, err = pendulum.Step(mat.NewVecDense(1, []float64{1.0}))
		require.NoError(t, err)
	}

	assert.Equal(t, maxSteps, step.Number)
	assert.True(t, step.TimedOut())
}

func TestContinuousStateStaysInBounds(t *testing.T) {
	task := NewSwingUp(fixedStarter{[]float64{math.Pi / 2, 0.0}}, 200)

	pendulum, _, err := NewContinuous(task, 0.99)
	require.NoError(t, err)

	var last bool
	var step = pendulum.CurrentTimeStep()
	for !last {
		step, last, err = pendulum.Step(mat.NewVecDense(1, []float64{2.0}))
		require.NoError(t, err)

		angle := step.Observation.AtVec(0)
		speed := step.Observation.AtVec(1)
		assert.GreaterOrEqual(t, angle, -AngleBound)
		assert.LessOrEqual(t, angle, AngleBound)
		assert.GreaterOrEqual(t, speed, -SpeedBound)
		assert.LessOrEqual(t, speed, SpeedBound)

		// Rewards are bounded by the task
		assert.GreaterOrEqual(t, step.Reward, task.Min())
		assert.LessOrEqual(t, step.Reward, task.Max())
	}
}
