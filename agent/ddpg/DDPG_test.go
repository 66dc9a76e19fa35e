package ddpg

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

const testSeed uint64 = 1423

// testEnv returns a mountain car environment whose episodes start near
// the valley floor and effectively never end
func testEnv(t *testing.T) (environment.Environment, ts.TimeStep) {
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}, testSeed)
	task := mountaincar.NewGoal(starter, 1000, mountaincar.GoalPosition)

	e, first, err := mountaincar.NewContinuous(task, 0.99)
	require.NoError(t, err)
	return e, first
}

// testConfig returns a small configuration for fast tests
func testConfig(t *testing.T, batchSize, minReplay, maxReplay int) Config {
	actorSolver, err := solver.NewDefaultAdam(0.01, batchSize)
	require.NoError(t, err)
	criticSolver, err := solver.NewDefaultAdam(0.01, batchSize)
	require.NoError(t, err)
	init, err := initwfn.NewGlorotU(1.0)
	require.NoError(t, err)

	config := DefaultConfig()
	config.ActorLayers = []int{5}
	config.ActorBiases = []bool{true}
	config.ActorActivations = []*network.Activation{network.ReLU()}
	config.ActorSolver = actorSolver
	config.CriticLayers = []int{5}
	config.CriticBiases = []bool{true}
	config.CriticActivations = []*network.Activation{network.ReLU()}
	config.CriticSolver = criticSolver
	config.InitWFn = init
	config.ExpReplay = expreplay.Config{
		SampleMethod:      expreplay.Uniform,
		SampleSize:        batchSize,
		MaxReplayCapacity: maxReplay,
		MinReplayCapacity: minReplay,
	}
	return config
}

// weightValues returns a copy of the values of each learnable in a
// network
func weightValues(net network.NeuralNet) [][]float64 {
	var values [][]float64
	for _, learnable := range net.Learnables() {
		data := learnable.Value().Data().([]float64)
		values = append(values, floatutils.Duplicate(data))
	}
	return values
}

// driveTransitions runs the agent-environment loop for n environment
// steps, observing each transition
func driveTransitions(t *testing.T, agent *DDPG,
	e environment.Environment, first ts.TimeStep, n int) {
	require.NoError(t, agent.ObserveFirst(first))

	step := first
	for i := 0; i < n; i++ {
		action := agent.SelectAction(step)
		next, last, err := e.Step(action)
		require.NoError(t, err)
		require.False(t, last)
		require.NoError(t, agent.Observe(action, next))
		step = next
	}
}

func TestBellmanTargets(t *testing.T) {
	rewards := []float64{1.5, -1.0, 2.0}
	nextValues := []float64{100.0, 3.0, -12.5}
	dones := []float64{1.0, 0.0, 0.0}

	targets := bellmanTargets(rewards, nextValues, dones, 0.9)

	// The terminal transition bootstraps nothing, regardless of the
	// magnitude of the next state's value estimate
	require.Equal(t, 1.5, targets[0])
	require.InDelta(t, -1.0+0.9*3.0, targets[1], 1e-12)
	require.InDelta(t, 2.0+0.9*(-12.5), targets[2], 1e-12)
}

func TestBellmanTargetsZeroDiscount(t *testing.T) {
	targets := bellmanTargets([]float64{3.0}, []float64{50.0},
		[]float64{0.0}, 0.0)
	require.Equal(t, []float64{3.0}, targets)
}

func TestCatStateAction(t *testing.T) {
	states := []float64{1, 2, 3, 4}
	actions := []float64{5, 6}

	input := catStateAction(states, actions, 2, 2, 1)
	require.Equal(t, []float64{1, 2, 5, 3, 4, 6}, input)
}

func TestActionColumns(t *testing.T) {
	c := &critic{batchSize: 2, stateDims: 2, actionDims: 1}

	gradients := c.actionColumns([]float64{1, 2, 3, 4, 5, 6})
	require.Equal(t, []float64{3, 6}, gradients)
}

func TestActionGradientsMatchFiniteDifferences(t *testing.T) {
	batchSize := 3
	stateDims := 2
	actionDims := 1

	init, err := initwfn.NewGlorotU(1.0)
	require.NoError(t, err)
	adam, err := solver.NewDefaultAdam(0.01, batchSize)
	require.NoError(t, err)

	// Smooth activations so that central differences approximate the
	// exact gradient
	c, err := newCritic(stateDims, actionDims, batchSize, []int{8},
		[]bool{true}, init.InitWFn(),
		[]*network.Activation{network.TanH()}, adam)
	require.NoError(t, err)
	defer c.Close()

	states := []float64{0.1, -0.3, 0.5, 0.2, -0.7, 0.9}
	actions := []float64{0.25, -0.5, 0.75}

	gradients, err := c.ActionGradients(states, actions)
	require.NoError(t, err)
	require.Len(t, gradients, batchSize*actionDims)

	h := 1e-6
	for i := range actions {
		plus := floatutils.Duplicate(actions)
		minus := floatutils.Duplicate(actions)
		plus[i] += h
		minus[i] -= h

		up, err := c.Predict(states, plus)
		require.NoError(t, err)
		down, err := c.Predict(states, minus)
		require.NoError(t, err)

		// Rows do not interact, so only value estimate i changes
		require.InDelta(t, (up[i]-down[i])/(2*h), gradients[i], 1e-4)
	}
}

func TestSelectActionDampsPureAction(t *testing.T) {
	config := testConfig(t, 4, 5, 10)

	// Zero-noise exploration isolates the damping
	config.ExplorationMu = 0.0
	config.ExplorationSigma = 0.0

	e, first := testEnv(t)
	agent, err := New(e, config, testSeed)
	require.NoError(t, err)
	defer agent.Close()
	require.NoError(t, agent.ObserveFirst(first))

	// The actor bounds its output to the action box in-graph, so
	// clipping never moves the pure or the damped action
	pure := agent.pureAction(first)
	action := agent.SelectAction(first)
	require.Equal(t, pure.Len(), action.Len())
	for i := 0; i < action.Len(); i++ {
		require.InDelta(t, config.PolicyDamping*pure.AtVec(i),
			action.AtVec(i), 1e-12)
	}

	agent.Eval()
	evalAction := agent.SelectAction(first)
	for i := 0; i < evalAction.Len(); i++ {
		require.InDelta(t, pure.AtVec(i), evalAction.AtVec(i), 1e-12)
	}
}

func TestNormalizeMapsBoundsToUnitInterval(t *testing.T) {
	d := &DDPG{
		stateLow:  []float64{-1.2, -0.07},
		stateHigh: []float64{0.6, 0.07},
		stateDims: 2,
	}

	low := d.normalize(mat.NewVecDense(2, []float64{-1.2, -0.07}))
	require.Equal(t, []float64{-1.0, -1.0}, low)

	high := d.normalize(mat.NewVecDense(2, []float64{0.6, 0.07}))
	require.Equal(t, []float64{1.0, 1.0}, high)

	interior := d.normalize(mat.NewVecDense(2, []float64{-0.3, 0.035}))
	for i := range interior {
		require.GreaterOrEqual(t, interior[i], -1.0)
		require.LessOrEqual(t, interior[i], 1.0)
	}
}

func TestNewStartsTargetsIdenticalToTrainNets(t *testing.T) {
	e, _ := testEnv(t)
	agent, err := New(e, testConfig(t, 4, 5, 10), testSeed)
	require.NoError(t, err)
	defer agent.Close()

	require.Equal(t, weightValues(agent.actor.train),
		weightValues(agent.actor.target))
	require.Equal(t, weightValues(agent.actor.train),
		weightValues(agent.actor.behaviour))
	require.Equal(t, weightValues(agent.critic.train),
		weightValues(agent.critic.target))
}

func TestSelectActionStaysInBounds(t *testing.T) {
	config := testConfig(t, 4, 5, 10)

	// Noise far larger than the action range so that undamped actions
	// plus noise would land well outside the bounds
	config.ExplorationSigma = 10.0

	e, first := testEnv(t)
	agent, err := New(e, config, testSeed)
	require.NoError(t, err)
	defer agent.Close()
	require.NoError(t, agent.ObserveFirst(first))

	require.False(t, agent.IsEval())
	for i := 0; i < 20; i++ {
		action := agent.SelectAction(first)
		require.Equal(t, 1, action.Len())
		require.GreaterOrEqual(t, action.AtVec(0),
			mountaincar.MinContinuousAction)
		require.LessOrEqual(t, action.AtVec(0),
			mountaincar.MaxContinuousAction)
	}

	agent.Eval()
	require.True(t, agent.IsEval())
	action := agent.SelectAction(first)
	require.GreaterOrEqual(t, action.AtVec(0),
		mountaincar.MinContinuousAction)
	require.LessOrEqual(t, action.AtVec(0), mountaincar.MaxContinuousAction)

	agent.Train()
	require.False(t, agent.IsEval())
}

func TestStepIsGatedUntilBufferExceedsBatchSize(t *testing.T) {
	batchSize := 4
	e, first := testEnv(t)
	agent, err := New(e, testConfig(t, batchSize, batchSize+1, 10), testSeed)
	require.NoError(t, err)
	defer agent.Close()

	before := weightValues(agent.critic.target)

	// One full batch of transitions is not enough to learn from
	driveTransitions(t, agent, e, first, batchSize)
	require.NoError(t, agent.Step())
	require.Equal(t, before, weightValues(agent.critic.target))

	// One transition beyond a full batch opens the gate
	action := agent.SelectAction(e.CurrentTimeStep())
	next, _, err := e.Step(action)
	require.NoError(t, err)
	require.NoError(t, agent.Observe(action, next))
	require.NoError(t, agent.Step())

	require.NotEqual(t, before, weightValues(agent.critic.target))

	// The behaviour policy always matches the trained policy after a
	// learning step
	require.Equal(t, weightValues(agent.actor.train),
		weightValues(agent.actor.behaviour))
}

func TestLearnAppliesTauToCorrectTargets(t *testing.T) {
	batchSize := 4
	config := testConfig(t, batchSize, batchSize+1, 10)
	config.TauCritic = 1.0
	config.TauActor = 0.0

	e, first := testEnv(t)
	agent, err := New(e, config, testSeed)
	require.NoError(t, err)
	defer agent.Close()

	actorTargetBefore := weightValues(agent.actor.target)

	driveTransitions(t, agent, e, first, batchSize+1)
	require.NoError(t, agent.Step())

	// tau = 1 replaces the critic target with the trained critic,
	// while tau = 0 leaves the actor target untouched
	require.Equal(t, weightValues(agent.critic.train),
		weightValues(agent.critic.target))
	require.Equal(t, actorTargetBefore, weightValues(agent.actor.target))
}

func TestObserveStoresNormalizedStates(t *testing.T) {
	e, first := testEnv(t)
	agent, err := New(e, testConfig(t, 1, 2, 5), testSeed)
	require.NoError(t, err)
	defer agent.Close()

	driveTransitions(t, agent, e, first, 3)

	for i := 0; i < 20; i++ {
		states, _, _, _, nextStates, err := agent.replay.Sample()
		require.NoError(t, err)

		for _, state := range [][]float64{states, nextStates} {
			for j := range state {
				require.GreaterOrEqual(t, state[j], -1.0)
				require.LessOrEqual(t, state[j], 1.0)
			}
		}
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	// Learning would never trigger if a full batch were enough
	config := DefaultConfig()
	config.ExpReplay.MinReplayCapacity = config.ExpReplay.SampleSize
	require.Error(t, config.Validate())

	config = DefaultConfig()
	config.ActorActivations = []*network.Activation{network.ReLU()}
	require.Error(t, config.Validate())

	config = DefaultConfig()
	config.PolicyDamping = 0.0
	require.Error(t, config.Validate())

	config = DefaultConfig()
	config.Gamma = 1.5
	require.Error(t, config.Validate())
}
