package ddpg

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// critic bundles the networks realizing the action-value function: a
// training net regressing towards TD targets, a gradient net exposing
// the gradient of the value estimate with respect to the action input,
// and a target net providing stable bootstrap values. Each net
// consumes a batch of states and actions stacked into rows of
// [state, action]. Only the training net owns a solver. The gradient
// net mirrors the training net's weights on demand, while the target
// net trails them through Polyak averaging.
type critic struct {
	train   network.NeuralNet // Learns the value function weights
	trainVM G.VM
	targets *G.Node // TD targets for the mean squared error
	solver  G.Solver

	grad       network.NeuralNet // Differentiated with respect to input
	gradVM     G.VM
	inputGrads G.Value // Gradient of the summed value estimates

	target   network.NeuralNet // Bootstrapping value estimates
	targetVM G.VM

	batchSize  int
	stateDims  int
	actionDims int
}

// newCritic returns a new critic whose three networks start with
// identical weights
func newCritic(stateDims, actionDims, batchSize int, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*network.Activation,
	solver G.Solver) (*critic, error) {
	features := stateDims + actionDims

	gTrain := G.NewGraph()
	train, err := network.NewMultiHeadMLP(features, batchSize, 1, gTrain,
		hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("newCritic: could not create training "+
			"network: %v", err)
	}

	// Mean squared TD error
	targets := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(train.Prediction().Shape()...),
		G.WithName("updateTargets"))
	loss := G.Must(G.Sub(train.Prediction(), targets))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))

	_, err = G.Grad(loss, train.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("newCritic: could not compute the value "+
			"function gradient: %v", err)
	}
	trainVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(train.Learnables()...))

	gradNet, err := train.Clone()
	if err != nil {
		return nil, fmt.Errorf("newCritic: could not create gradient "+
			"network: %v", err)
	}

	targetNet, err := train.Clone()
	if err != nil {
		return nil, fmt.Errorf("newCritic: could not create target "+
			"network: %v", err)
	}
	targetVM := G.NewTapeMachine(targetNet.Graph())

	c := &critic{
		train:   train,
		trainVM: trainVM,
		targets: targets,
		solver:  solver,

		grad: gradNet,

		target:   targetNet,
		targetVM: targetVM,

		batchSize:  batchSize,
		stateDims:  stateDims,
		actionDims: actionDims,
	}

	// Differentiate the sum of the gradient net's value estimates with
	// respect to its input. Rows do not interact in the forward pass,
	// so each input row receives the gradient of its own value
	// estimate.
	valueSum := G.Must(G.Sum(gradNet.Prediction()))
	inputGrads, err := G.Grad(valueSum, gradNet.Input())
	if err != nil {
		return nil, fmt.Errorf("newCritic: could not compute the input "+
			"gradient: %v", err)
	}
	G.Read(inputGrads[0], &c.inputGrads)
	c.gradVM = G.NewTapeMachine(gradNet.Graph())

	return c, nil
}

// Predict returns the training net's value estimate for each
// (state, action) pair in a batch. The forward pass runs on the
// gradient net after mirroring the training net's weights, leaving the
// training net's graph untouched.
func (c *critic) Predict(states, actions []float64) ([]float64, error) {
	if err := c.grad.Set(c.train); err != nil {
		return nil, fmt.Errorf("predict: could not copy weights: %v", err)
	}

	input := catStateAction(states, actions, c.batchSize, c.stateDims,
		c.actionDims)
	if err := c.grad.SetInput(input); err != nil {
		return nil, fmt.Errorf("predict: could not set input: %v", err)
	}
	if err := c.gradVM.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not run forward pass: %v",
			err)
	}
	values := floatutils.Duplicate(c.grad.Output().Data().([]float64))
	c.gradVM.Reset()

	return values, nil
}

// PredictTarget returns the target net's value estimate for each
// (state, action) pair in a batch
func (c *critic) PredictTarget(states, actions []float64) ([]float64,
	error) {
	input := catStateAction(states, actions, c.batchSize, c.stateDims,
		c.actionDims)
	if err := c.target.SetInput(input); err != nil {
		return nil, fmt.Errorf("predictTarget: could not set input: %v",
			err)
	}
	if err := c.targetVM.RunAll(); err != nil {
		return nil, fmt.Errorf("predictTarget: could not run forward "+
			"pass: %v", err)
	}
	values := floatutils.Duplicate(c.target.Output().Data().([]float64))
	c.targetVM.Reset()

	return values, nil
}

// Train performs a single gradient descent step on the mean squared
// error between the training net's value estimates and the argument
// TD targets
func (c *critic) Train(states, actions, targets []float64) error {
	input := catStateAction(states, actions, c.batchSize, c.stateDims,
		c.actionDims)
	if err := c.train.SetInput(input); err != nil {
		return fmt.Errorf("train: could not set input: %v", err)
	}

	targetTensor := tensor.New(tensor.WithShape(c.targets.Shape()...),
		tensor.WithBacking(targets))
	if err := G.Let(c.targets, targetTensor); err != nil {
		return fmt.Errorf("train: could not set update targets: %v", err)
	}

	if err := c.trainVM.RunAll(); err != nil {
		return fmt.Errorf("train: could not run forward pass: %v", err)
	}
	if err := c.solver.Step(c.train.Model()); err != nil {
		return fmt.Errorf("train: could not step solver: %v", err)
	}
	c.trainVM.Reset()

	return nil
}

// ActionGradients returns the gradient of the value estimate with
// respect to the action input for each (state, action) pair in a
// batch. Gradients are evaluated using the training net's current
// weights.
func (c *critic) ActionGradients(states, actions []float64) ([]float64,
	error) {
	if err := c.grad.Set(c.train); err != nil {
		return nil, fmt.Errorf("actionGradients: could not copy "+
			"weights: %v", err)
	}

	input := catStateAction(states, actions, c.batchSize, c.stateDims,
		c.actionDims)
	if err := c.grad.SetInput(input); err != nil {
		return nil, fmt.Errorf("actionGradients: could not set input: %v",
			err)
	}
	if err := c.gradVM.RunAll(); err != nil {
		return nil, fmt.Errorf("actionGradients: could not run forward "+
			"pass: %v", err)
	}
	gradients := c.actionColumns(c.inputGrads.Data().([]float64))
	c.gradVM.Reset()

	return gradients, nil
}

// SyncTarget moves the target net's weights towards the training net's
// weights: target := tau*train + (1-tau)*target
func (c *critic) SyncTarget(tau float64) error {
	if tau == 1.0 {
		return c.target.Set(c.train)
	}
	return c.target.Polyak(c.train, tau)
}

// Close releases the critic's tape machines
func (c *critic) Close() error {
	if err := c.trainVM.Close(); err != nil {
		return fmt.Errorf("close: could not close training VM: %v", err)
	}
	if err := c.gradVM.Close(); err != nil {
		return fmt.Errorf("close: could not close gradient VM: %v", err)
	}
	if err := c.targetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close target VM: %v", err)
	}
	return nil
}

// actionColumns slices the action columns out of a row-major
// (batchSize, stateDims+actionDims) input gradient
func (c *critic) actionColumns(inputGrads []float64) []float64 {
	features := c.stateDims + c.actionDims
	gradients := make([]float64, c.batchSize*c.actionDims)
	for i := 0; i < c.batchSize; i++ {
		row := inputGrads[i*features : (i+1)*features]
		copy(gradients[i*c.actionDims:(i+1)*c.actionDims],
			row[c.stateDims:])
	}
	return gradients
}

// catStateAction stacks a batch of states and a batch of actions into
// row-major rows of [state, action], the input format of the critic's
// networks
func catStateAction(states, actions []float64, batchSize, stateDims,
	actionDims int) []float64 {
	features := stateDims + actionDims
	input := make([]float64, batchSize*features)
	for i := 0; i < batchSize; i++ {
		copy(input[i*features:], states[i*stateDims:(i+1)*stateDims])
		copy(input[i*features+stateDims:(i+1)*features],
			actions[i*actionDims:(i+1)*actionDims])
	}
	return input
}
