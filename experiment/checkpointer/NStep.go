package checkpointer

import (
	"fmt"

	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	steps    int
	object   Serializable // Object to save

	// filename returns the string filename of the file to save the object
	// in.
	//
	// If each serialized object should be saved in a separate file with
	// each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), then simply use the
	// static function FilenameEnumerator, which will return a function
	// that will enumerate filenames. For example:
	//
	// n := NewNStep(10, object, FilenameEnumerator(0, "weights", ".bin"))
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n calls to
// Checkpoint. Steps are counted across episodes.
func NewNStep(n int, object Serializable,
	filename func() string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive "+
			"\n\thave(%v)", n)
	}
	if object == nil || filename == nil {
		return nil, fmt.Errorf("newNStep: object and filename must be " +
			"non-nil")
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object if the number of steps seen is a
// multiple of the checkpointing interval
func (n *nStep) Checkpoint(ts.TimeStep) error {
	n.steps++
	if n.steps%n.interval == 0 {
		return Save(n.filename(), n.object)
	}
	return nil
}
