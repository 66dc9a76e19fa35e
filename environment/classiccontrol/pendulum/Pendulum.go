// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"
	"os"

	env "github.com/samuelfneumann/goddpg/environment"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// base implements the underlying pendulum environment. In this
// environment, a pendulum is attached to a fixed base. An agent can
// swing the pendulum back and forth, but the swinging force/torque is
// underpowered. In order to be able to swing the pendulum straight up,
// it must first be rocked back and forth, using the momentum to
// gradually climb higher until the pendulum can point straight up or
// rotate fully around its fixed base.
//
// State features consist of the angle of the pendulum from the positive
// y-axis and the angular velocity of the pendulum. Both state features
// are bounded by the AngleBound and SpeedBound constants in this
// package. The sign of the angular velocity or speed indicates
// direction, with negative sign indicating counter clockwise rotation
// and positive sign indicating clockwise direction. The angular
// velocity is clipped between [-SpeedBound, SpeedBound]. Angles are
// normalized to stay within [-AngleBound, AngleBound] = [-π, π].
//
// base does not implement the environment.Environment interface and is
// embedded in Continuous, which does implement this interface.
type base struct {
	env.Task
	dt           float64
	gravity      float64
	mass         float64
	length       float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     ts.TimeStep
	discount     float64
}

// newBase creates and returns a new base environment
func newBase(t env.Task, d float64) (*base, ts.TimeStep, error) {
	angleBounds := r1.Interval{Min: -AngleBound, Max: AngleBound}
	speedBounds := r1.Interval{Min: -SpeedBound, Max: SpeedBound}
	torqueBounds := r1.Interval{Min: -TorqueBound, Max: TorqueBound}

	state := t.Start()
	err := validateState(state, angleBounds, speedBounds)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newBase: %v", err)
	}

	firstStep := ts.New(ts.First, 0.0, d, state, 0)

	pendulum := base{t, dt, Gravity, Mass, Length, angleBounds,
		speedBounds, torqueBounds, firstStep, d}

	return &pendulum, firstStep, nil
}

// CurrentTimeStep returns the current timestep of the environment
func (p *base) CurrentTimeStep() ts.TimeStep {
	return p.lastStep
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *base) Reset() (ts.TimeStep, error) {
	state := p.Start()
	err := validateState(state, p.angleBounds, p.speedBounds)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	startStep := ts.New(ts.First, 0, p.discount, state, 0)
	p.lastStep = startStep

	return startStep, nil
}

// nextState computes the next state of the environment given the
// amount of torque to apply to the fixed base of the pendulum. The
// torque is first clipped to the appropriate torque bounds.
func (p *base) nextState(torque float64) *mat.VecDense {
	obs := p.CurrentTimeStep().Observation
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	// Clip the torque
	torque = floatutils.ClipInterval(torque, p.torqueBounds)

	newthdot := thdot + (-3*p.gravity/(2*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*math.Pow(p.length, 2))*torque)*p.dt

	newth := th + (newthdot * p.dt)

	// Clip the angular velocity
	newthdot = floats.Min([]float64{newthdot, p.speedBounds.Max})
	newthdot = floats.Max([]float64{newthdot, p.speedBounds.Min})

	// Normalize the angle
	newth = normalizeAngle(newth, p.angleBounds)

	newObs := mat.NewVecDense(2, []float64{newth, newthdot})
	return newObs
}

// update updates the base environment so that the argument next state
// becomes the environment's current state. The reward for the
// transition is computed by the Task, and the next TimeStep is checked
// to see if it is the last in the episode. This function returns the
// next TimeStep and whether or not it is the last in the episode.
func (p *base) update(action, newState *mat.VecDense) (ts.TimeStep,
	bool) {
	// Create the new timestep
	reward := p.GetReward(p.CurrentTimeStep().Observation, action, newState)
	nextStep := ts.New(ts.Mid, reward, p.discount, newState,
		p.CurrentTimeStep().Number+1)

	// Check if the step is the last in the episode and adjust step type
	// if necessary
	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// DiscountSpec returns the discount specification of the environment
func (p *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{p.discount})
	upperBound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	minObs := []float64{p.angleBounds.Min, p.speedBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, minObs)

	maxObs := []float64{p.angleBounds.Max, p.speedBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, maxObs)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// String converts the environment to a string representation
func (p *base) String() string {
	str := "Pendulum  |  theta: %v  |  theta dot: %v\n"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}

// Render renders the current timestep to the terminal
func (p *base) Render() {
	angle := p.lastStep.Observation.AtVec(0)
	var frame string

	if angle > -math.Pi/8 && angle < math.Pi/8 {
		frame = "  | \n  ."
	} else if angle > -math.Pi/8 && angle < (3*math.Pi/8) {
		frame = "   / \n  ."
	} else if angle >= (3*math.Pi/8) && angle < (5*math.Pi/8) {
		frame = "  .--\n"
	} else if angle >= (5*math.Pi/8) && angle < (7*math.Pi/8) {
		frame = "  . \n   \\"
	} else if angle >= (7*math.Pi/8) && angle < (9*math.Pi/8) {
		frame = "  . \n  |"
	} else if angle > (-9*math.Pi/8) && angle <= (-7*math.Pi/8) {
		frame = "  . \n  |"
	} else if angle > (-7*math.Pi/8) && angle <= (-5*math.Pi/8) {
		frame = "  . \n/"
	} else if angle > (-5*math.Pi/8) && angle <= (-3*math.Pi/8) {
		frame = "--.\n"
	} else if angle > (-3*math.Pi/8) && angle <= (-math.Pi/8) {
		frame = "\\ \n  ."
	}
	os.Stdout.WriteString("\x1b[3;J\x1b[H\x1b[2J")
	fmt.Printf("\n\n%s\n\n", frame)
}

// normalizeAngle normalizes the pendulum angle to the appropriate limits
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	} else {
		return th
	}
}

// validateState validates the state to ensure that the angle and
// angular velocity are within the environmental limits
func validateState(obs mat.Vector, angleBounds,
	speedBounds r1.Interval) error {
	// Check if the angle is within bounds
	thWithinBounds := obs.AtVec(0) <= angleBounds.Max &&
		obs.AtVec(0) >= angleBounds.Min
	if !thWithinBounds {
		return fmt.Errorf("theta is not within bounds %v", angleBounds)
	}

	// Check if the angular velocity is within bounds
	thdotWithinBounds := obs.AtVec(1) <= speedBounds.Max &&
		obs.AtVec(1) >= speedBounds.Min
	if !thdotWithinBounds {
		return fmt.Errorf("theta dot is not within bounds %v", speedBounds)
	}
	return nil
}
