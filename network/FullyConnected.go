package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer implements a single layer of a neural network
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) Layer
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if f.Activation() == nil || f.Activation().IsNil() {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// GobEncode implements the gob.GobEncoder interface. Only the layer's
// weight values and activation are encoded.
func (f *fcLayer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(f.act); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activation: %v",
			err)
	}

	if err := enc.Encode(f.weights != nil); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode weight "+
			"flag: %v", err)
	}
	if f.weights != nil {
		weights := f.weights.Value().(*tensor.Dense)
		if err := enc.Encode(weights); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode weights: %v",
				err)
		}
	}

	if err := enc.Encode(f.bias != nil); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode bias flag: %v",
			err)
	}
	if f.bias != nil {
		bias := f.bias.Value().(*tensor.Dense)
		if err := enc.Encode(bias); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode bias: %v",
				err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The destination
// fcLayer must already exist on some graph with the same shapes as the
// encoded layer; decoding fills the layer's existing weight nodes with
// the encoded values.
func (f *fcLayer) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var act Activation
	if err := dec.Decode(&act); err != nil {
		return fmt.Errorf("gobdecode: could not decode activation: %v", err)
	}
	f.act = &act

	var hasWeights bool
	if err := dec.Decode(&hasWeights); err != nil {
		return fmt.Errorf("gobdecode: could not decode weight flag: %v", err)
	}
	if hasWeights {
		var weights tensor.Dense
		if err := dec.Decode(&weights); err != nil {
			return fmt.Errorf("gobdecode: could not decode weights: %v", err)
		}
		if f.weights == nil {
			return fmt.Errorf("gobdecode: no weight node to decode into")
		}
		if err := G.Let(f.weights, &weights); err != nil {
			return fmt.Errorf("gobdecode: could not set weights: %v", err)
		}
	}

	var hasBias bool
	if err := dec.Decode(&hasBias); err != nil {
		return fmt.Errorf("gobdecode: could not decode bias flag: %v", err)
	}
	if hasBias {
		var bias tensor.Dense
		if err := dec.Decode(&bias); err != nil {
			return fmt.Errorf("gobdecode: could not decode bias: %v", err)
		}
		if f.bias == nil {
			return fmt.Errorf("gobdecode: no bias node to decode into")
		}
		if err := G.Let(f.bias, &bias); err != nil {
			return fmt.Errorf("gobdecode: could not set bias: %v", err)
		}
	}

	return nil
}

// addfcLayers adds a stack of fully connected layers to the graph g.
// For index i, sizes[i] is the number of units in layer i; biases[i]
// is true if layer i has a bias unit; and activations[i] is the
// activation function of layer i. The features parameter is the number
// of inputs to the first layer. Weight names take the given prefix and
// suffix so that multiple networks can share a single graph.
func addfcLayers(g *G.ExprGraph, sizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int,
	prefix, suffix string) []Layer {
	layers := make([]Layer, 0, len(sizes))

	for i, size := range sizes {
		weightName := fmt.Sprintf("%vL%vW%v", prefix, i, suffix)
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(features, size),
			G.WithName(weightName),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			biasName := fmt.Sprintf("%vL%vB%v", prefix, i, suffix)
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, size),
				G.WithName(biasName),
				G.WithInit(init),
			)
		}

		layers = append(layers, &fcLayer{
			weights: weights,
			bias:    bias,
			act:     activations[i],
		})

		features = size
	}

	return layers
}
