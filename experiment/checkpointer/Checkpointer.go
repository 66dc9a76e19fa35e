// Package checkpointer implements functionality for checkpointing
// serializable objects periodically during an experiment
package checkpointer

import (
	"encoding/gob"

	ts "github.com/samuelfneumann/goddpg/timestep"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on
// timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
