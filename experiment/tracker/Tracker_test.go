package tracker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/goddpg/timestep"
)

// episode returns the sequence of timesteps of an episode with the
// argument rewards. The reward of the first timestep is always 0.
func episode(rewards []float64) []ts.TimeStep {
	obs := mat.NewVecDense(1, []float64{0.0})

	steps := []ts.TimeStep{ts.New(ts.First, 0.0, 1.0, obs, 0)}
	for i, reward := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, reward, 1.0, obs, i+1))
	}
	return steps
}

func TestReturnTracksEpisodicReturns(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data.bin")
	tracker := NewReturn(filename)

	for _, step := range episode([]float64{-1.0, -1.0, 10.0}) {
		tracker.Track(step)
	}
	for _, step := range episode([]float64{2.5, 2.5}) {
		tracker.Track(step)
	}

	tracker.Save()
	data := LoadData(filename)

	require.Equal(t, []float64{8.0, 5.0}, data)
}

func TestReturnPanicsOnNonSequentialTimesteps(t *testing.T) {
	tracker := NewReturn(filepath.Join(t.TempDir(), "data.bin"))

	obs := mat.NewVecDense(1, []float64{0.0})
	tracker.Track(ts.New(ts.First, 0.0, 1.0, obs, 0))

	require.Panics(t, func() {
		tracker.Track(ts.New(ts.Mid, 1.0, 1.0, obs, 5))
	})
}

func TestEpisodeLengthTracksOnlyFinishedEpisodes(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	tracker := NewEpisodeLength(filename).(*EpisodeLength)

	for _, step := range episode([]float64{-1.0, -1.0, -1.0}) {
		tracker.Track(step)
	}
	for _, step := range episode([]float64{-1.0}) {
		tracker.Track(step)
	}

	// An unfinished episode is never recorded
	obs := mat.NewVecDense(1, []float64{0.0})
	tracker.Track(ts.New(ts.First, 0.0, 1.0, obs, 0))
	tracker.Track(ts.New(ts.Mid, -1.0, 1.0, obs, 1))

	require.Equal(t, []int{3, 1}, tracker.episodeLengths)
}
