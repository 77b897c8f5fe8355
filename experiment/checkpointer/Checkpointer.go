// Package checkpointer implements Checkpointers, which periodically
// save serializable objects such as agent weights during an experiment
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/pricelearn/timestep"
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

// Save gob encodes object into the file filename
func Save(filename string, object Serializable) error {
	data, err := object.GobEncode()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Load decodes the contents of filename, previously written by Save,
// into object
func Load(filename string, object Serializable) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err := object.GobDecode(data); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}
