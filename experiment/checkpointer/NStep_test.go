package checkpointer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/goddpg/timestep"
)

// gobSlice is a minimal Serializable for testing
type gobSlice []byte

func (g gobSlice) GobEncode() ([]byte, error) { return g, nil }
func (g *gobSlice) GobDecode(b []byte) error  { *g = b; return nil }

func step(number int) ts.TimeStep {
	obs := mat.NewVecDense(1, []float64{0.0})
	return ts.New(ts.Mid, 0.0, 1.0, obs, number)
}

func TestNStepCheckpointsAtInterval(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "checkpoint")
	object := gobSlice([]byte{1, 2, 3})

	c := NewNStep(10, &object, FilenameEnumerator(0, name, ".bin"))

	for i := 1; i <= 25; i++ {
		require.NoError(t, c.Checkpoint(step(i)))
	}

	// Steps 10 and 20 each produced one enumerated file
	_, err := os.Stat(name + "1.bin")
	require.NoError(t, err)
	_, err = os.Stat(name + "2.bin")
	require.NoError(t, err)
	_, err = os.Stat(name + "3.bin")
	require.True(t, os.IsNotExist(err))
}

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(5, "file", ".bin")

	require.Equal(t, "file6.bin", next())
	require.Equal(t, "file7.bin", next())
}
