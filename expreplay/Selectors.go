package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/goddpg/utils/intutils"
)

// SelectorType describes the available types of Selectors
type SelectorType string

const (
	Uniform SelectorType = "Uniform"
	Fifo    SelectorType = "Fifo"
)

// CreateSelector is a factory method for creating Selectors
func CreateSelector(t SelectorType, batchSize int,
	seed uint64) (Selector, error) {
	switch t {
	case Uniform:
		return NewUniformSelector(batchSize, seed), nil
	case Fifo:
		return NewFifoSelector(batchSize), nil
	}
	return nil, fmt.Errorf("createSelector: no such selector type %v", t)
}

// Selector implements functionality for choosing the indices at which
// data should be sampled from an experience replay buffer
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer. Index 0 refers to the oldest
	// transition in the buffer.
	choose(c *cache) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly with replacement
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data
// uniformly randomly from an experience replay buffer
func NewUniformSelector(samples int, seed uint64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(c *cache) []int {
	selected := make([]int, u.BatchSize())
	for i := 0; i < u.BatchSize(); i++ {
		selected[i] = u.rng.Intn(c.Capacity())
	}

	return selected
}

// fifoSelector is a Selector which selects data from an experience
// replay buffer first-in-first-out, so that the oldest data in the
// buffer is returned first
type fifoSelector struct {
	samples int
}

// NewFifoSelector returns a new Selector which draws the oldest data
// from an experience replay buffer
func NewFifoSelector(samples int) Selector {
	return &fifoSelector{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (f *fifoSelector) BatchSize() int {
	return f.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (f *fifoSelector) choose(c *cache) []int {
	selected := make([]int, intutils.Min(f.BatchSize(), c.Capacity()))
	for i := range selected {
		selected[i] = i
	}

	return selected
}
