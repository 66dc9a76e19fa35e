package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// actorMLP implements a multi-layered perceptron which parameterizes
// a deterministic policy over a bounded, continuous action space.
// The network computes actions as:
//
//	a = tanh(f(state)) * (high - low)/2 + (high + low)/2
//
// where f is the output of the final fully connected layer and low
// and high are the per-dimension action bounds. The tanh squashes the
// network output to (-1, 1), and the affine map places it within
// [low, high], so every prediction of the network is a legal action.
//
// The scaling terms are constants of the computational graph and are
// not learned.
type actorMLP struct {
	g      *G.ExprGraph
	layers []Layer
	input  *G.Node
	scale  *G.Node
	center *G.Node

	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation
	low         []float64
	high        []float64

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewActorMLP creates and returns a new multi-layered perceptron
// which predicts actions in [low, high]. The graph parameter g is
// populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// layer of size actionDims with a bias unit and tanh activation is
// always added, followed by the affine transform which maps the tanh
// output to the action bounds. The function works such that for index
// i, hiddenSizes[i] is the number of nodes in hidden layer i;
// biases[i] is true if hidden layer i contains a bias unit; and
// activations[i] is the activation function for hidden layer i. The
// parameter init determines the weight initialization scheme.
//
// The parameters low and high are the per-dimension action bounds and
// must each have actionDims elements with low[i] <= high[i].
func NewActorMLP(features, batch, actionDims int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, low, high []float64) (NeuralNet, error) {
	// Ensure one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newactormlp: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newactormlp: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	// Ensure one bound per action dimension
	if len(low) != actionDims || len(high) != actionDims {
		msg := "newactormlp: invalid number of action bounds\n\twant(%d)" +
			"\n\thave low(%d) high(%d)"
		return nil, fmt.Errorf(msg, actionDims, len(low), len(high))
	}
	for i := range low {
		if low[i] > high[i] {
			msg := "newactormlp: lower action bound exceeds upper bound " +
				"at dimension %d: [%v, %v]"
			return nil, fmt.Errorf(msg, i, low[i], high[i])
		}
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Add the final tanh layer so that actions are predicted by the
	// network
	hiddenSizes = append(hiddenSizes, actionDims)
	biases = append(biases, true)
	activations = append(activations, TanH())

	layers := addfcLayers(g, hiddenSizes, biases, activations, init,
		features, "", "")

	scale, center := actionTransform(g, low, high)

	// Create the network and run the forward pass on the input node
	network := actorMLP{
		g:           g,
		layers:      layers,
		input:       input,
		scale:       scale,
		center:      center,
		numOutputs:  actionDims,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
		low:         low,
		high:        high,
		learnables:  nil,
		model:       nil,
	}
	_, err := network.fwd(input)
	if err != nil {
		msg := "newactormlp: could not compute forward pass: %v"
		return nil, fmt.Errorf(msg, err)
	}

	return &network, nil
}

// actionTransform returns the constant nodes which scale and shift
// the tanh output of an actorMLP into the action bounds.
func actionTransform(g *G.ExprGraph, low,
	high []float64) (scale, center *G.Node) {
	actionDims := len(low)

	scaleData := make([]float64, actionDims)
	centerData := make([]float64, actionDims)
	for i := range low {
		scaleData[i] = (high[i] - low[i]) / 2
		centerData[i] = (high[i] + low[i]) / 2
	}

	scaleTensor := tensor.New(
		tensor.WithBacking(scaleData),
		tensor.WithShape(1, actionDims),
	)
	scale = G.NewMatrix(g, tensor.Float64, G.WithShape(1, actionDims),
		G.WithName("actionScale"), G.WithValue(scaleTensor))

	centerTensor := tensor.New(
		tensor.WithBacking(centerData),
		tensor.WithShape(1, actionDims),
	)
	center = G.NewMatrix(g, tensor.Float64, G.WithShape(1, actionDims),
		G.WithName("actionCenter"), G.WithValue(centerTensor))

	return scale, center
}

// Graph returns the computational graph of the actorMLP.
func (e *actorMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones an actorMLP
func (e *actorMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones an actorMLP onto a new graph with a new input
// batch size. The cloned network starts with the same weight values
// as the original.
func (e *actorMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()

	// Create the input node
	if !e.input.IsMatrix() {
		return nil, fmt.Errorf("clonewithbatch: invalid input type")
	}
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	// Copy fully connected layers
	l := make([]Layer, len(e.layers))
	for i := range e.layers {
		l[i] = e.layers[i].CloneTo(graph)
	}

	scale, center := actionTransform(graph, e.low, e.high)

	// Create the network and run the forward pass on the input node
	network := actorMLP{
		g:           graph,
		layers:      l,
		input:       input,
		scale:       scale,
		center:      center,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
		low:         e.low,
		high:        e.high,
	}
	_, err := network.fwd(input)
	if err != nil {
		msg := fmt.Sprintf("clonewithbatch: could not clone: %v", err)
		panic(msg)
	}

	return &network, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *actorMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input vector
// that the network takes as input.
func (e *actorMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of action dimensions the network
// predicts
func (e *actorMLP) Outputs() int {
	return e.numOutputs
}

// Input returns the input node of the network
func (e *actorMLP) Input() *G.Node {
	return e.input
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *actorMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		msg := fmt.Sprintf("invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of an actorMLP to be equal to the weights of
// another NeuralNet
func (e *actorMLP) Set(source NeuralNet) error {
	return Set(e, source)
}

// Polyak sets the weights of an actorMLP to be a polyak average
// between its existing weights and the weights of another NeuralNet
func (e *actorMLP) Polyak(source NeuralNet, tau float64) error {
	return Polyak(e, source, tau)
}

// Learnables returns the learnable nodes in an actorMLP. The action
// bound constants are not learnable.
func (e *actorMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

// computeLearnables computes all the learnables for the network
func (e *actorMLP) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		if weights := e.layers[i].Weights(); weights != nil {
			learnables = append(learnables, weights)
		}
		if bias := e.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients.
func (e *actorMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = e.computeModel()
	}
	return e.model
}

// computeModel computes the model for the network
func (e *actorMLP) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(e.layers))
	for _, node := range e.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the actorMLP on the input node
func (e *actorMLP) fwd(input *G.Node) (*G.Node, error) {
	inputShape := input.Shape()[len(input.Shape())-1]
	if inputShape != e.numInputs {
		return nil, fmt.Errorf("fwd: invalid shape for input to neural "+
			"net: \n\twant(%v) \n\thave(%v)", e.numInputs, inputShape)
	}

	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	// Map the tanh output into the action bounds
	pred, err = G.BroadcastHadamardProd(pred, e.scale, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("fwd: could not scale actions: %v", err)
	}
	pred, err = G.BroadcastAdd(pred, e.center, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("fwd: could not shift actions: %v", err)
	}

	e.prediction = pred

	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Output returns the output of the actorMLP. The output is valid only
// after a VM has run the network's graph.
func (e *actorMLP) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the actorMLP
func (e *actorMLP) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface
func (e *actorMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	err := enc.Encode(e.numOutputs)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of outputs")
	}

	err = enc.Encode(e.numInputs)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of inputs")
	}

	err = enc.Encode(e.BatchSize())
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size")
	}

	err = enc.Encode(e.hiddenSizes)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}

	err = enc.Encode(e.biases)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}

	err = enc.Encode(e.activations)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}

	err = enc.Encode(e.low)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode lower bounds")
	}

	err = enc.Encode(e.high)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode upper bounds")
	}

	// Store the fcLayers
	for i, layer := range e.layers {
		err := enc.Encode(layer)
		if err != nil {
			msg := "gobencode: could not encode layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *actorMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var numOutputs int
	err := dec.Decode(&numOutputs)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of outputs")
	}

	var numInputs int
	err = dec.Decode(&numInputs)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of inputs")
	}

	var batchSize int
	err = dec.Decode(&batchSize)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size")
	}

	var hiddenSizes []int
	err = dec.Decode(&hiddenSizes)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}

	var biases []bool
	err = dec.Decode(&biases)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}

	var activations []*Activation
	err = dec.Decode(&activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}

	var low []float64
	err = dec.Decode(&low)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode lower bounds")
	}

	var high []float64
	err = dec.Decode(&high)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode upper bounds")
	}

	// The encoded sizes include the final tanh layer, which
	// NewActorMLP adds back
	hiddenSizes = hiddenSizes[:len(hiddenSizes)-1]
	biases = biases[:len(biases)-1]
	activations = activations[:len(activations)-1]

	// Create a new MLP
	g := G.NewGraph()
	newNet, err := NewActorMLP(numInputs, batchSize, numOutputs, g,
		hiddenSizes, biases, G.Zeroes(), activations, low, high)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new MLP: %v", err)
	}
	newMLP, ok := newNet.(*actorMLP)
	if !ok {
		panic("gobdecode: NewActorMLP() returned type != actorMLP")
	}

	// Fill the new MLP's layers with the encoded weight values
	for i := range newMLP.layers {
		err = dec.Decode(newMLP.layers[i])
		if err != nil {
			return fmt.Errorf("gobdecode: could not decode layer %v: %v", i,
				err)
		}
	}

	*e = *newMLP
	return nil
}
