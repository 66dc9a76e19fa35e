package expreplay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/timestep"
)

const (
	featureSize int    = 2
	actionSize  int    = 1
	seed        uint64 = 4185
)

// testTransition returns a transition whose fields encode id so that
// sampled data can be traced back to its insertion
func testTransition(id float64, done bool) timestep.Transition {
	return timestep.Transition{
		State:     mat.NewVecDense(featureSize, []float64{id, id + 0.5}),
		Action:    mat.NewVecDense(actionSize, []float64{-id}),
		Reward:    id,
		NextState: mat.NewVecDense(featureSize, []float64{id + 1, id + 1.5}),
		Done:      done,
	}
}

func TestCacheNeverExceedsMaxCapacity(t *testing.T) {
	maxCap := 5
	buffer, err := New(NewUniformSelector(2, seed), 1, maxCap, featureSize,
		actionSize)
	require.NoError(t, err)

	for i := 0; i < 4*maxCap; i++ {
		require.NoError(t, buffer.Add(testTransition(float64(i), false)))
		require.LessOrEqual(t, buffer.Capacity(), maxCap)
	}
	require.Equal(t, maxCap, buffer.Capacity())
}

func TestCacheEvictsOldestFirst(t *testing.T) {
	maxCap := 3
	buffer, err := New(NewFifoSelector(maxCap), 1, maxCap, featureSize,
		actionSize)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, buffer.Add(testTransition(float64(i), false)))
	}

	// Transitions 0 and 1 should have been evicted, leaving 2, 3, 4
	// in insertion order
	_, _, rewards, _, _, err := buffer.Sample()
	require.NoError(t, err)
	require.Equal(t, []float64{2, 3, 4}, rewards)
}

func TestSampleEmptyBuffer(t *testing.T) {
	buffer, err := New(NewUniformSelector(2, seed), 1, 10, featureSize,
		actionSize)
	require.NoError(t, err)

	_, _, _, _, _, err = buffer.Sample()
	require.Error(t, err)
	require.True(t, IsEmptyBuffer(err))
	require.False(t, IsInsufficientSamples(err))
}

func TestSampleMinCapacityGate(t *testing.T) {
	batchSize := 4
	buffer, err := New(NewUniformSelector(batchSize, seed), batchSize+1,
		100, featureSize, actionSize)
	require.NoError(t, err)

	// Sampling must fail until the buffer holds strictly more than
	// batchSize transitions
	for i := 0; i < batchSize; i++ {
		require.NoError(t, buffer.Add(testTransition(float64(i), false)))

		_, _, _, _, _, err = buffer.Sample()
		require.Error(t, err)
		require.True(t, IsInsufficientSamples(err))
	}

	require.NoError(t, buffer.Add(testTransition(float64(batchSize), false)))
	states, actions, rewards, dones, nextStates, err := buffer.Sample()
	require.NoError(t, err)

	require.Len(t, states, batchSize*featureSize)
	require.Len(t, nextStates, batchSize*featureSize)
	require.Len(t, actions, batchSize*actionSize)
	require.Len(t, rewards, batchSize)
	require.Len(t, dones, batchSize)
}

func TestSampleReturnsStoredData(t *testing.T) {
	batchSize := 8
	buffer, err := New(NewUniformSelector(batchSize, seed), 1, 10,
		featureSize, actionSize)
	require.NoError(t, err)

	require.NoError(t, buffer.Add(testTransition(1, false)))
	require.NoError(t, buffer.Add(testTransition(2, true)))

	states, actions, rewards, dones, nextStates, err := buffer.Sample()
	require.NoError(t, err)

	for i := 0; i < batchSize; i++ {
		id := rewards[i]
		require.Contains(t, []float64{1, 2}, id)

		require.Equal(t, id, states[i*featureSize])
		require.Equal(t, id+0.5, states[i*featureSize+1])
		require.Equal(t, id+1, nextStates[i*featureSize])
		require.Equal(t, -id, actions[i*actionSize])

		if id == 2 {
			require.Equal(t, 1.0, dones[i])
		} else {
			require.Equal(t, 0.0, dones[i])
		}
	}
}

func TestAddInvalidDims(t *testing.T) {
	buffer, err := New(NewUniformSelector(1, seed), 1, 10, featureSize,
		actionSize)
	require.NoError(t, err)

	badState := timestep.Transition{
		State:     mat.NewVecDense(featureSize+1, nil),
		Action:    mat.NewVecDense(actionSize, nil),
		NextState: mat.NewVecDense(featureSize+1, nil),
	}
	require.Error(t, buffer.Add(badState))

	badAction := timestep.Transition{
		State:     mat.NewVecDense(featureSize, nil),
		Action:    mat.NewVecDense(actionSize+2, nil),
		NextState: mat.NewVecDense(featureSize, nil),
	}
	require.Error(t, buffer.Add(badAction))

	require.Equal(t, 0, buffer.Capacity())
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		SampleMethod:      Uniform,
		SampleSize:        4,
		MaxReplayCapacity: 100,
		MinReplayCapacity: 5,
	}
	require.NoError(t, valid.Validate())

	batchTooLarge := valid
	batchTooLarge.SampleSize = 101
	require.Error(t, batchTooLarge.Validate())

	minAboveMax := valid
	minAboveMax.MinReplayCapacity = 101
	require.Error(t, minAboveMax.Validate())

	zeroMin := valid
	zeroMin.MinReplayCapacity = 0
	require.Error(t, zeroMin.Validate())
}

func TestCreateSelectorUnknownType(t *testing.T) {
	_, err := CreateSelector(SelectorType("Prioritized"), 4, seed)
	require.Error(t, err)
}
