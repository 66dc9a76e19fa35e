// Package noise implements stateful processes for generating
// exploration noise
package noise

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// Process generates sequences of exploration noise. A Process is
// stateful: consecutive calls to Sample() may return correlated noise,
// and Reset() returns the Process to its initial state. Processes are
// reset at the start of each episode.
type Process interface {
	Reset()
	Sample() *mat.VecDense
}

// OrnsteinUhlenbeck implements an Ornstein-Uhlenbeck process for
// generating temporally correlated exploration noise. The process
// evolves as
//
//	x <- x + theta * (mu - x) + sigma * eps		eps ~ N(0, I)
//
// so that noise drifts back towards the mean mu at rate theta, while
// sigma scales the white noise perturbing each step. The state x
// evolves only through calls to Sample(), and Reset() returns x to mu
// exactly.
//
// Given equal parameters and seeds, two OrnsteinUhlenbeck processes
// generate identical noise sequences.
type OrnsteinUhlenbeck struct {
	mu     float64
	theta  float64
	sigma  float64
	x      *mat.VecDense
	normal distmv.Rander
}

// NewOrnsteinUhlenbeck returns a new Ornstein-Uhlenbeck process
// generating dims-dimensional noise
func NewOrnsteinUhlenbeck(dims int, mu, theta, sigma float64,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	if dims < 1 {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: dims must be "+
			"positive, got %v", dims)
	}
	if sigma < 0 {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: sigma must be "+
			"non-negative, got %v", sigma)
	}

	// Create the standard normal for sampling perturbations
	means := make([]float64, dims)
	stds := mat.NewDiagDense(dims, floatutils.Ones(dims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: could not create " +
			"standard normal for sampling")
	}

	state := mat.NewVecDense(dims, nil)
	for i := 0; i < dims; i++ {
		state.SetVec(i, mu)
	}

	return &OrnsteinUhlenbeck{
		mu:     mu,
		theta:  theta,
		sigma:  sigma,
		x:      state,
		normal: normal,
	}, nil
}

// Reset returns the process to its initial state x = mu
func (o *OrnsteinUhlenbeck) Reset() {
	for i := 0; i < o.x.Len(); i++ {
		o.x.SetVec(i, o.mu)
	}
}

// Sample advances the process by one step and returns a copy of the
// updated state
func (o *OrnsteinUhlenbeck) Sample() *mat.VecDense {
	eps := o.normal.Rand(nil)

	for i := 0; i < o.x.Len(); i++ {
		x := o.x.AtVec(i)
		o.x.SetVec(i, x+o.theta*(o.mu-x)+o.sigma*eps[i])
	}

	sample := mat.NewVecDense(o.x.Len(), nil)
	sample.CopyVec(o.x)
	return sample
}
