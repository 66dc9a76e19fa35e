package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

// newTestMLP returns a multiHeadMLP with all weights initialized to a
// known constant value.
func newTestMLP(t *testing.T, features, batch, outputs int, hidden []int,
	init G.InitWFn) NeuralNet {
	t.Helper()

	biases := make([]bool, len(hidden))
	activations := make([]*Activation, len(hidden))
	for i := range hidden {
		biases[i] = true
		activations[i] = ReLU()
	}

	net, err := NewMultiHeadMLP(features, batch, outputs, G.NewGraph(),
		hidden, biases, init, activations)
	require.NoError(t, err)
	return net
}

// weightValues returns the flattened values of each learnable in net
func weightValues(t *testing.T, net NeuralNet) [][]float64 {
	t.Helper()

	values := make([][]float64, 0, len(net.Learnables()))
	for _, learnable := range net.Learnables() {
		values = append(values, learnable.Value().Data().([]float64))
	}
	return values
}

func TestSetCopiesWeights(t *testing.T) {
	dest := newTestMLP(t, 3, 1, 2, []int{5}, G.Zeroes())
	source := newTestMLP(t, 3, 1, 2, []int{5}, G.ValuesOf(3.0))

	require.NoError(t, Set(dest, source))

	for _, learnable := range weightValues(t, dest) {
		for _, value := range learnable {
			assert.Equal(t, 3.0, value)
		}
	}
}

func TestSetMismatchedShapes(t *testing.T) {
	dest := newTestMLP(t, 3, 1, 2, []int{5}, G.Zeroes())
	source := newTestMLP(t, 3, 1, 2, []int{6}, G.Zeroes())

	assert.Error(t, Set(dest, source))
}

func TestSetMismatchedLearnables(t *testing.T) {
	dest := newTestMLP(t, 3, 1, 2, []int{5}, G.Zeroes())
	source := newTestMLP(t, 3, 1, 2, []int{5, 5}, G.Zeroes())

	assert.Error(t, Set(dest, source))
}

func TestPolyakFullReplacement(t *testing.T) {
	dest := newTestMLP(t, 3, 1, 2, []int{5}, G.ValuesOf(1.0))
	source := newTestMLP(t, 3, 1, 2, []int{5}, G.ValuesOf(3.0))

	require.NoError(t, Polyak(dest, source, 1.0))

	// With tau = 1.0 the target becomes an exact copy of the source
	for _, learnable := range weightValues(t, dest) {
		for _, value := range learnable {
			assert.Equal(t, 3.0, value)
		}
	}
}

func TestPolyakIdentity(t *testing.T) {
	dest := newTestMLP(t, 3, 1, 2, []int{5}, G.ValuesOf(1.0))
	source := newTestMLP(t, 3, 1, 2, []int{5}, G.ValuesOf(3.0))

	require.NoError(t, Polyak(dest, source, 0.0))

	// With tau = 0.0 the target is left unchanged
	for _, learnable := range weightValues(t, dest) {
		for _, value := range learnable {
			assert.Equal(t, 1.0, value)
		}
	}
}

func TestPolyakInterpolates(t *testing.T) {
	dest := newTestMLP(t, 3, 1, 2, []int{5}, G.ValuesOf(1.0))
	source := newTestMLP(t, 3, 1, 2, []int{5}, G.ValuesOf(3.0))

	require.NoError(t, Polyak(dest, source, 0.25))

	// dest <- 0.25 * 3.0 + 0.75 * 1.0
	for _, learnable := range weightValues(t, dest) {
		for _, value := range learnable {
			assert.InDelta(t, 1.5, value, 1e-10)
		}
	}
}

func TestPolyakMismatchedShapes(t *testing.T) {
	dest := newTestMLP(t, 3, 1, 2, []int{5}, G.Zeroes())
	source := newTestMLP(t, 3, 1, 2, []int{6}, G.Zeroes())

	assert.Error(t, Polyak(dest, source, 0.5))
}

// forward runs the forward pass of net on input and returns the
// predicted values.
func forward(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	require.NoError(t, net.SetInput(input))
	require.NoError(t, vm.RunAll())

	return net.Output().Data().([]float64)
}

func TestActorMLPActionBounds(t *testing.T) {
	low := []float64{-2.0, 0.0}
	high := []float64{2.0, 1.0}

	net, err := NewActorMLP(3, 1, 2, G.NewGraph(), []int{5}, []bool{true},
		G.ValuesOf(0.7), []*Activation{ReLU()}, low, high)
	require.NoError(t, err)

	actions := forward(t, net, []float64{0.5, -0.25, 1.0})
	require.Len(t, actions, 2)
	for i, action := range actions {
		assert.GreaterOrEqual(t, action, low[i])
		assert.LessOrEqual(t, action, high[i])
	}
}

func TestActorMLPSaturatedBounds(t *testing.T) {
	low := []float64{-2.0, 0.0}
	high := []float64{2.0, 1.0}

	// Large constant weights saturate the tanh, so the predicted
	// actions land exactly on the upper bound
	net, err := NewActorMLP(3, 1, 2, G.NewGraph(), []int{5}, []bool{true},
		G.ValuesOf(50.0), []*Activation{ReLU()}, low, high)
	require.NoError(t, err)

	actions := forward(t, net, []float64{0.5, 0.5, 0.5})
	require.Len(t, actions, 2)
	for i, action := range actions {
		assert.InDelta(t, high[i], action, 1e-8)
	}
}

func TestActorMLPInvalidBounds(t *testing.T) {
	_, err := NewActorMLP(3, 1, 2, G.NewGraph(), []int{5}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()}, []float64{1.0, 0.0},
		[]float64{-1.0, 1.0})
	assert.Error(t, err)
}

func TestMultiHeadMLPGobRoundTrip(t *testing.T) {
	net := newTestMLP(t, 4, 2, 3, []int{5}, G.ValuesOf(2.0))
	mlp, ok := net.(*multiHeadMLP)
	require.True(t, ok)

	encoded, err := mlp.GobEncode()
	require.NoError(t, err)

	decoded := new(multiHeadMLP)
	require.NoError(t, decoded.GobDecode(encoded))

	assert.Equal(t, mlp.Features(), decoded.Features())
	assert.Equal(t, mlp.Outputs(), decoded.Outputs())
	assert.Equal(t, mlp.BatchSize(), decoded.BatchSize())

	wantWeights := weightValues(t, mlp)
	haveWeights := weightValues(t, decoded)
	require.Equal(t, len(wantWeights), len(haveWeights))
	for i := range wantWeights {
		assert.Equal(t, wantWeights[i], haveWeights[i])
	}
}
