// Package ddpg implements the Deep Deterministic Policy Gradient
// algorithm
package ddpg

import (
	"fmt"
	"math"

	"github.com/aunum/log"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
	"github.com/samuelfneumann/goddpg/utils/matutils"
)

// DDPG implements the Deep Deterministic Policy Gradient algorithm:
//
//	https://arxiv.org/abs/1509.02971
//
// An actor learns a deterministic continuous-action policy by ascending
// the action-value estimates of a critic, which itself learns by
// minimizing the mean squared TD error on transitions sampled uniformly
// from an experience replay buffer. Slowly-tracking target copies of
// both networks stabilize the bootstrapped update targets, and a
// mean-reverting Ornstein-Uhlenbeck process perturbs actions for
// exploration during training.
//
// Observations are normalized to [-1, 1] elementwise before they reach
// any network or the replay buffer, using the bounds declared by the
// environment's observation spec. Actions are always clipped to the
// environment's action bounds before they are returned.
type DDPG struct {
	actor  *actor
	critic *critic

	replay expreplay.ExperienceReplayer
	noise  noise.Process

	gamma     float64
	tauActor  float64
	tauCritic float64
	damping   float64

	// Bounds from the environment's observation and action specs
	stateLow   []float64
	stateHigh  []float64
	actionLow  []float64
	actionHigh []float64

	batchSize  int
	stateDims  int
	actionDims int

	prevStep ts.TimeStep
	eval     bool
}

// New creates and returns a new DDPG agent
func New(e env.Environment, config Config, seed uint64) (*DDPG, error) {
	// Ensure environment has continuous actions
	if e.ActionSpec().Cardinality != env.Continuous {
		return nil, fmt.Errorf("new: cannot use non-continuous actions")
	}

	// Ensure the configuration is valid
	if err := config.Validate(); err != nil {
		return nil, err
	}

	obsSpec := e.ObservationSpec()
	actionSpec := e.ActionSpec()
	stateDims := obsSpec.Shape.Len()
	actionDims := actionSpec.Shape.Len()

	// State normalization requires a bounded observation box
	stateLow := make([]float64, stateDims)
	stateHigh := make([]float64, stateDims)
	for i := 0; i < stateDims; i++ {
		stateLow[i] = obsSpec.LowerBound.AtVec(i)
		stateHigh[i] = obsSpec.UpperBound.AtVec(i)
		if math.IsInf(stateLow[i], 0) || math.IsInf(stateHigh[i], 0) {
			return nil, fmt.Errorf("new: cannot normalize observation "+
				"dimension %v with unbounded range", i)
		}
		if stateLow[i] >= stateHigh[i] {
			return nil, fmt.Errorf("new: observation dimension %v has "+
				"invalid range [%v, %v]", i, stateLow[i], stateHigh[i])
		}
	}

	// The actor's output transform requires a bounded action box
	actionLow := make([]float64, actionDims)
	actionHigh := make([]float64, actionDims)
	for i := 0; i < actionDims; i++ {
		actionLow[i] = actionSpec.LowerBound.AtVec(i)
		actionHigh[i] = actionSpec.UpperBound.AtVec(i)
		if math.IsInf(actionLow[i], 0) || math.IsInf(actionHigh[i], 0) {
			return nil, fmt.Errorf("new: cannot bound actions of "+
				"dimension %v with unbounded range", i)
		}
	}

	// Create the experience replay buffer
	replay, err := config.ExpReplay.Create(stateDims, actionDims, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	// Create the exploration noise process
	exploration, err := noise.NewOrnsteinUhlenbeck(actionDims,
		config.ExplorationMu, config.ExplorationTheta,
		config.ExplorationSigma, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create exploration "+
			"process: %v", err)
	}

	init := config.InitWFn.InitWFn()

	actor, err := newActor(stateDims, config.BatchSize(), actionDims,
		config.ActorLayers, config.ActorBiases, init,
		config.ActorActivations, actionLow, actionHigh, config.ActorSolver)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	critic, err := newCritic(stateDims, actionDims, config.BatchSize(),
		config.CriticLayers, config.CriticBiases, init,
		config.CriticActivations, config.CriticSolver)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &DDPG{
		actor:  actor,
		critic: critic,

		replay: replay,
		noise:  exploration,

		gamma:     config.Gamma,
		tauActor:  config.TauActor,
		tauCritic: config.TauCritic,
		damping:   config.PolicyDamping,

		stateLow:   stateLow,
		stateHigh:  stateHigh,
		actionLow:  actionLow,
		actionHigh: actionHigh,

		batchSize:  config.BatchSize(),
		stateDims:  stateDims,
		actionDims: actionDims,

		eval: false,
	}, nil
}

// SelectAction returns the action to take in the state of timestep t.
// In training mode the policy's action is damped and perturbed by
// exploration noise. The returned action is always clipped to the
// environment's action bounds.
func (d *DDPG) SelectAction(t ts.TimeStep) *mat.VecDense {
	action := d.pureAction(t)
	if !d.eval {
		action.ScaleVec(d.damping, action)
		action.AddVec(action, d.noise.Sample())
	}
	matutils.VecClipBounds(action, d.actionLow, d.actionHigh)

	return action
}

// pureAction returns the deterministic policy's action in the state of
// timestep t, before damping, exploration noise, and clipping
func (d *DDPG) pureAction(t ts.TimeStep) *mat.VecDense {
	pure, err := d.actor.Predict(d.normalize(t.Observation))
	if err != nil {
		panic(fmt.Sprintf("selectaction: could not predict action: %v",
			err))
	}
	return mat.NewVecDense(d.actionDims, pure)
}

// ObserveFirst observes and records the first episodic timestep and
// resets the exploration process for the new episode
func (d *DDPG) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		log.Warningf("observeFirst: should only be called on the first "+
			"timestep (current timestep = %d)", t.Number)
	}

	d.noise.Reset()
	d.prevStep = t

	return nil
}

// Observe observes and records any timestep other than the first,
// adding the transition it completes to the replay buffer. States are
// normalized before they are stored.
func (d *DDPG) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	prevStep := d.prevStep
	d.prevStep = nextStep

	if nextStep.First() {
		return nil
	}

	transition := ts.NewTransition(d.normalized(prevStep), action,
		d.normalized(nextStep))
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not add to replay buffer: %v",
			err)
	}

	return nil
}

// Step updates the weights of the agent's networks. Until the replay
// buffer holds strictly more transitions than a single batch, Step is
// a no-op.
func (d *DDPG) Step() error {
	states, actions, rewards, dones, nextStates, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: could not sample replay buffer: %v", err)
	}

	return d.learn(states, actions, rewards, dones, nextStates)
}

// learn performs a single update to the actor and critic from a batch
// of sampled transitions.
//
// The critic regresses towards the TD targets bootstrapped from the
// target networks. The critic is updated first so that the value
// gradients driving the actor's update are evaluated with the critic's
// already-updated weights. Both target networks then trail their
// training networks, the critic's at rate tauCritic and the actor's at
// rate tauActor.
func (d *DDPG) learn(states, actions, rewards, dones,
	nextStates []float64) error {
	nextActions, err := d.actor.PredictTarget(nextStates)
	if err != nil {
		return fmt.Errorf("learn: could not predict next actions: %v", err)
	}

	nextValues, err := d.critic.PredictTarget(nextStates, nextActions)
	if err != nil {
		return fmt.Errorf("learn: could not predict next state values: %v",
			err)
	}

	targets := bellmanTargets(rewards, nextValues, dones, d.gamma)
	if err := d.critic.Train(states, actions, targets); err != nil {
		return fmt.Errorf("learn: could not train critic: %v", err)
	}

	gradients, err := d.critic.ActionGradients(states, actions)
	if err != nil {
		return fmt.Errorf("learn: could not compute action gradients: %v",
			err)
	}
	if err := d.actor.Train(states, gradients); err != nil {
		return fmt.Errorf("learn: could not train actor: %v", err)
	}
	if err := d.actor.SyncBehaviour(); err != nil {
		return fmt.Errorf("learn: could not update behaviour policy: %v",
			err)
	}

	if err := d.critic.SyncTarget(d.tauCritic); err != nil {
		return fmt.Errorf("learn: could not update critic target: %v", err)
	}
	if err := d.actor.SyncTarget(d.tauActor); err != nil {
		return fmt.Errorf("learn: could not update actor target: %v", err)
	}

	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (d *DDPG) EndEpisode() {}

// Eval sets the agent into evaluation mode
func (d *DDPG) Eval() { d.eval = true }

// Train sets the agent into training mode
func (d *DDPG) Train() { d.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (d *DDPG) IsEval() bool { return d.eval }

// Policy returns the network of the agent's learned policy
func (d *DDPG) Policy() network.NeuralNet {
	return d.actor.train
}

// ValueFunction returns the network of the agent's learned value
// function
func (d *DDPG) ValueFunction() network.NeuralNet {
	return d.critic.train
}

// Close releases the tape machines of the agent's networks
func (d *DDPG) Close() error {
	if err := d.actor.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	if err := d.critic.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}

// normalize maps a raw observation into [-1, 1] elementwise using the
// bounds of the environment's observation spec. Out-of-range
// observations extrapolate linearly and are not clipped.
func (d *DDPG) normalize(obs mat.Vector) []float64 {
	normalized := make([]float64, obs.Len())
	for i := range normalized {
		normalized[i] = floatutils.Normalize(obs.AtVec(i), d.stateLow[i],
			d.stateHigh[i])
	}
	return normalized
}

// normalized returns a copy of timestep t whose observation is
// normalized to [-1, 1]
func (d *DDPG) normalized(t ts.TimeStep) ts.TimeStep {
	t.Observation = mat.NewVecDense(d.stateDims,
		d.normalize(t.Observation))
	return t
}

// bellmanTargets computes the TD target for each transition in a
// batch: y = r + ℽ*nextValue*(1 - done). Transitions that ended their
// episode take the immediate reward as their target since there is no
// next state to bootstrap from.
func bellmanTargets(rewards, nextValues, dones []float64,
	ℽ float64) []float64 {
	targets := make([]float64, len(rewards))
	for i := range targets {
		targets[i] = rewards[i] + ℽ*nextValues[i]*(1.0-dones[i])
	}
	return targets
}
