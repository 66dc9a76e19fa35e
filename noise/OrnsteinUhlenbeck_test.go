package noise

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const seed uint64 = 192382

// TestOrnsteinUhlenbeckDeterminism tests that two processes created
// with equal parameters and seeds generate identical noise sequences
func TestOrnsteinUhlenbeckDeterminism(t *testing.T) {
	first, err := NewOrnsteinUhlenbeck(3, 0.0, 0.05, 0.25, seed)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewOrnsteinUhlenbeck(3, 0.0, 0.05, 0.25, seed)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		a, b := first.Sample(), second.Sample()
		if !mat.EqualApprox(a, b, 1e-14) {
			t.Fatalf("identically seeded processes diverged on sample "+
				"%v: %v != %v", i, a, b)
		}
	}
}

// TestOrnsteinUhlenbeckReset tests that resetting the process returns
// its state to the mean exactly
func TestOrnsteinUhlenbeckReset(t *testing.T) {
	mu := 0.5
	process, err := NewOrnsteinUhlenbeck(2, mu, 0.05, 0.25, seed)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 25; i++ {
		process.Sample()
	}
	process.Reset()

	for i := 0; i < process.x.Len(); i++ {
		if process.x.AtVec(i) != mu {
			t.Errorf("expected state %v after reset, got %v", mu,
				process.x.AtVec(i))
		}
	}
}

// TestOrnsteinUhlenbeckSampleCopies tests that mutating a returned
// sample does not corrupt the process state
func TestOrnsteinUhlenbeckSampleCopies(t *testing.T) {
	process, err := NewOrnsteinUhlenbeck(1, 0.0, 0.05, 0.25, seed)
	if err != nil {
		t.Fatal(err)
	}

	sample := process.Sample()
	state := process.x.AtVec(0)
	sample.SetVec(0, 1e9)

	if process.x.AtVec(0) != state {
		t.Error("mutating a returned sample changed the process state")
	}
}

// TestOrnsteinUhlenbeckMeanReversion tests that with no white noise
// the process decays geometrically towards its mean
func TestOrnsteinUhlenbeckMeanReversion(t *testing.T) {
	theta := 0.05
	process, err := NewOrnsteinUhlenbeck(1, 0.0, theta, 0.0, seed)
	if err != nil {
		t.Fatal(err)
	}
	process.x.SetVec(0, 1.0)

	expected := 1.0
	for i := 0; i < 10; i++ {
		expected *= 1.0 - theta
		sample := process.Sample()
		if math.Abs(sample.AtVec(0)-expected) > 1e-12 {
			t.Fatalf("expected state %v on step %v, got %v", expected, i,
				sample.AtVec(0))
		}
	}
}

func TestOrnsteinUhlenbeckInvalidDims(t *testing.T) {
	if _, err := NewOrnsteinUhlenbeck(0, 0.0, 0.05, 0.25, seed); err == nil {
		t.Error("expected an error for a 0-dimensional process")
	}
}
