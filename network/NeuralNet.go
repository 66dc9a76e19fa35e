// Package network implements neural network function approximators
// as Gorgonia computational graphs
package network

import (
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet implements a neural network on a Gorgonia computational
// graph. A NeuralNet holds its own input node. Callers set the input
// value with SetInput(), run the graph with some G.VM, and then read
// the predictions with Output().
//
// NeuralNets expose their parameters through Learnables() and can have
// their parameters overwritten with Set() or moved towards another
// network's parameters with Polyak(). Together these form the
// parameter-set contract that target networks and checkpointing rely
// on.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	Input() *G.Node
	SetInput([]float64) error
	Set(NeuralNet) error
	Polyak(NeuralNet, float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node

	gob.GobEncoder
	gob.GobDecoder
}

// Set sets the weights of dest to be equal to the weights of source.
// The networks must have the same number of learnables, stored in the
// same order, with equal shapes.
func Set(dest, source NeuralNet) error {
	destNodes := dest.Learnables()
	sourceNodes := source.Learnables()
	if len(destNodes) != len(sourceNodes) {
		return fmt.Errorf("set: mismatched number of learnables "+
			"\n\twant(%v)\n\thave(%v)", len(destNodes), len(sourceNodes))
	}

	for i, destLearnable := range destNodes {
		sourceLearnable := sourceNodes[i]
		if !destLearnable.Shape().Eq(sourceLearnable.Shape()) {
			return fmt.Errorf("set: mismatched shapes for learnable %v "+
				"\n\twant(%v)\n\thave(%v)", i, destLearnable.Shape(),
				sourceLearnable.Shape())
		}

		clone := sourceLearnable.Clone()
		err := G.Let(destLearnable, clone.(*G.Node).Value())
		if err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}

// Polyak sets the weights of dest to be a Polyak average between its
// existing weights and the weights of source:
//
//	dest <- tau * source + (1 - tau) * dest
//
// With tau = 1.0, Polyak is equivalent to Set. With tau = 0.0, dest is
// left unchanged. The networks must have the same number of
// learnables, stored in the same order, with equal shapes.
func Polyak(dest, source NeuralNet, tau float64) error {
	destNodes := dest.Learnables()
	sourceNodes := source.Learnables()
	if len(destNodes) != len(sourceNodes) {
		return fmt.Errorf("polyak: mismatched number of learnables "+
			"\n\twant(%v)\n\thave(%v)", len(destNodes), len(sourceNodes))
	}

	for i := range destNodes {
		if !destNodes[i].Shape().Eq(sourceNodes[i].Shape()) {
			return fmt.Errorf("polyak: mismatched shapes for learnable %v "+
				"\n\twant(%v)\n\thave(%v)", i, destNodes[i].Shape(),
				sourceNodes[i].Shape())
		}

		weights := destNodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return fmt.Errorf("polyak: could not scale dest learnable "+
				"%v: %v", i, err)
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return fmt.Errorf("polyak: could not scale source learnable "+
				"%v: %v", i, err)
		}

		newWeights, err := weights.Add(sourceWeights)
		if err != nil {
			return fmt.Errorf("polyak: could not average learnable %v: %v",
				i, err)
		}

		err = G.Let(destNodes[i], newWeights)
		if err != nil {
			return fmt.Errorf("polyak: could not set learnable %v: %v", i,
				err)
		}
	}
	return nil
}
