// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"

	"github.com/gammazero/deque"

	"github.com/samuelfneumann/goddpg/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleMethod      SelectorType
	SampleSize        int
	MaxReplayCapacity int
	MinReplayCapacity int
}

// Validate returns an error describing why the Config is invalid, or
// nil if the Config describes a valid ExperienceReplayer
func (c Config) Validate() error {
	if c.MinReplayCapacity <= 0 {
		return fmt.Errorf("minReplayCapacity must be > 0")
	}
	if c.MaxReplayCapacity < 1 {
		return fmt.Errorf("maxReplayCapacity must be >= 1")
	}
	if c.MaxReplayCapacity < c.SampleSize {
		return fmt.Errorf("cannot have batch size (%v) > max buffer "+
			"capacity (%v)", c.SampleSize, c.MaxReplayCapacity)
	}
	if c.MaxReplayCapacity < c.MinReplayCapacity {
		return fmt.Errorf("cannot have min buffer capacity (%v) > max "+
			"buffer capacity (%v)", c.MinReplayCapacity, c.MaxReplayCapacity)
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config
func (c Config) Create(featureSize, actionSize int,
	seed uint64) (ExperienceReplayer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	sampler, err := CreateSelector(c.SampleMethod, c.SampleSize, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	return New(sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize, actionSize)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer, removing the oldest
	// transition first if the buffer is full
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer and
	// returns the batch of (s, a, r, done, s') tuples as flat,
	// row-major []float64
	Sample() ([]float64, []float64, []float64, []float64, []float64,
		error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer. Transitions are
// held in insertion order, oldest at the front. Once the cache fills,
// each insertion evicts the oldest transition, so the cache always
// holds the MaxCapacity most recent transitions.
type cache struct {
	transitions *deque.Deque[timestep.Transition]

	// Outlines how data is sampled
	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer. The sampler
// parameter is a Selector which determines how data is sampled from
// the replay buffer. The featureSize and actionSize parameters define
// the size of the feature and action vectors.
//
// Pixel observations should be flattened before adding to the buffer.
func New(sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if maxCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}

	return &cache{
		transitions: deque.New[timestep.Transition](),
		sampler:     sampler,
		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Capacity: %v \nMax Capacity: %v \nMin Capacity: %v \n" +
		"Batch Size: %v"
	return fmt.Sprintf(baseStr, c.Capacity(), c.MaxCapacity(),
		c.MinCapacity(), c.BatchSize())
}

// BatchSize returns the number of samples sampled using Sample() -
// a.k.a the batch size
func (c *cache) BatchSize() int {
	return c.sampler.BatchSize()
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *cache) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, error) {
	if c.Capacity() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
		return nil, nil, nil, nil, nil, err
	}
	if c.Capacity() < c.MinCapacity() {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	indices := c.sampler.choose(c)

	stateBatch := make([]float64, c.BatchSize()*c.featureSize)
	nextStateBatch := make([]float64, c.BatchSize()*c.featureSize)
	actionBatch := make([]float64, c.BatchSize()*c.actionSize)
	rewardBatch := make([]float64, c.BatchSize())
	doneBatch := make([]float64, c.BatchSize())

	for i, index := range indices {
		t := c.transitions.At(index)

		stateStart := i * c.featureSize
		for j := 0; j < c.featureSize; j++ {
			stateBatch[stateStart+j] = t.State.AtVec(j)
			nextStateBatch[stateStart+j] = t.NextState.AtVec(j)
		}

		actionStart := i * c.actionSize
		for j := 0; j < c.actionSize; j++ {
			actionBatch[actionStart+j] = t.Action.AtVec(j)
		}

		rewardBatch[i] = t.Reward
		if t.Done {
			doneBatch[i] = 1.0
		}
	}

	return stateBatch, actionBatch, rewardBatch, doneBatch,
		nextStateBatch, nil
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Capacity() int {
	return c.transitions.Len()
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *cache) MinCapacity() int {
	return c.minCapacity
}

// Add adds a transition to the cache, evicting the oldest transition
// first if the cache is full
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", c.featureSize, t.State.Len())
	}
	if t.Action.Len() != c.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", c.actionSize, t.Action.Len())
	}

	if c.Capacity() >= c.maxCapacity {
		c.transitions.PopFront()
	}
	c.transitions.PushBack(t)

	return nil
}
