package ddpg

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// actor bundles the networks realizing the deterministic policy: a
// behaviour net selecting single actions, a training net whose weights
// follow the critic-supplied value gradients, and a target net
// providing stable action proposals for bootstrapping. Only the
// training net owns a solver. The behaviour net is hard-copied from
// the training net after every learning step, while the target net
// trails it through Polyak averaging.
type actor struct {
	behaviour   network.NeuralNet // Selects single actions
	behaviourVM G.VM

	train   network.NeuralNet // Learns the policy weights
	trainVM G.VM
	gradIn  *G.Node // Critic-supplied value gradient batch
	solver  G.Solver

	target   network.NeuralNet // Bootstrapping action proposals
	targetVM G.VM

	batchSize  int
	actionDims int
}

// newActor returns a new actor whose three networks start with
// identical weights. The low and high parameters are the environment's
// action bounds, enforced by each network's output transform.
func newActor(features, batchSize, actionDims int, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*network.Activation,
	low, high []float64, solver G.Solver) (*actor, error) {
	g := G.NewGraph()
	behaviour, err := network.NewActorMLP(features, 1, actionDims, g,
		hiddenSizes, biases, init, activations, low, high)
	if err != nil {
		return nil, fmt.Errorf("newActor: could not create behaviour "+
			"network: %v", err)
	}
	behaviourVM := G.NewTapeMachine(behaviour.Graph())

	train, err := behaviour.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newActor: could not create training "+
			"network: %v", err)
	}
	gTrain := train.Graph()

	// The critic supplies the gradient of its value estimate with
	// respect to the action taken at each sampled state. Descending
	// the negated mean of the per-sample products 〈action, gradient〉
	// ascends the critic's value estimate.
	gradIn := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, actionDims), G.WithName("actionGradients"))
	loss := G.Must(G.HadamardProd(train.Prediction(), gradIn))
	loss = G.Must(G.Sum(loss, 1))
	loss = G.Must(G.Mean(loss))
	loss = G.Must(G.Neg(loss))

	_, err = G.Grad(loss, train.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("newActor: could not compute the policy "+
			"gradient: %v", err)
	}
	trainVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(train.Learnables()...))

	target, err := train.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newActor: could not create target "+
			"network: %v", err)
	}
	targetVM := G.NewTapeMachine(target.Graph())

	return &actor{
		behaviour:   behaviour,
		behaviourVM: behaviourVM,

		train:   train,
		trainVM: trainVM,
		gradIn:  gradIn,
		solver:  solver,

		target:   target,
		targetVM: targetVM,

		batchSize:  batchSize,
		actionDims: actionDims,
	}, nil
}

// Predict returns the action chosen by the behaviour policy in a
// single state
func (a *actor) Predict(state []float64) ([]float64, error) {
	if err := a.behaviour.SetInput(state); err != nil {
		return nil, fmt.Errorf("predict: could not set input: %v", err)
	}
	if err := a.behaviourVM.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not run forward pass: %v",
			err)
	}
	action := floatutils.Duplicate(a.behaviour.Output().Data().([]float64))
	a.behaviourVM.Reset()

	return action, nil
}

// PredictTarget returns the actions chosen by the target policy for a
// batch of states
func (a *actor) PredictTarget(states []float64) ([]float64, error) {
	if err := a.target.SetInput(states); err != nil {
		return nil, fmt.Errorf("predictTarget: could not set input: %v",
			err)
	}
	if err := a.targetVM.RunAll(); err != nil {
		return nil, fmt.Errorf("predictTarget: could not run forward "+
			"pass: %v", err)
	}
	actions := floatutils.Duplicate(a.target.Output().Data().([]float64))
	a.targetVM.Reset()

	return actions, nil
}

// Train performs a single gradient ascent step on the training net's
// weights along the argument value gradients, which hold one gradient
// per sampled state.
func (a *actor) Train(states, actionGradients []float64) error {
	if err := a.train.SetInput(states); err != nil {
		return fmt.Errorf("train: could not set input: %v", err)
	}

	gradients := tensor.New(tensor.WithShape(a.batchSize, a.actionDims),
		tensor.WithBacking(actionGradients))
	if err := G.Let(a.gradIn, gradients); err != nil {
		return fmt.Errorf("train: could not set action gradients: %v", err)
	}

	if err := a.trainVM.RunAll(); err != nil {
		return fmt.Errorf("train: could not run forward pass: %v", err)
	}
	if err := a.solver.Step(a.train.Model()); err != nil {
		return fmt.Errorf("train: could not step solver: %v", err)
	}
	a.trainVM.Reset()

	return nil
}

// SyncBehaviour sets the behaviour net's weights to the training net's
// weights
func (a *actor) SyncBehaviour() error {
	return a.behaviour.Set(a.train)
}

// SyncTarget moves the target net's weights towards the training net's
// weights: target := tau*train + (1-tau)*target
func (a *actor) SyncTarget(tau float64) error {
	if tau == 1.0 {
		return a.target.Set(a.train)
	}
	return a.target.Polyak(a.train, tau)
}

// Close releases the actor's tape machines
func (a *actor) Close() error {
	if err := a.behaviourVM.Close(); err != nil {
		return fmt.Errorf("close: could not close behaviour VM: %v", err)
	}
	if err := a.trainVM.Close(); err != nil {
		return fmt.Errorf("close: could not close training VM: %v", err)
	}
	if err := a.targetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close target VM: %v", err)
	}
	return nil
}
