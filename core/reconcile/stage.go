package reconcile

import "fmt"

// stage tracks how far a reconciler has progressed. Steps only move it forward.
type stage int

const (
	stageFresh stage = iota
	stagePruned
	stageStaged
	stageFinished
)

func (s stage) String() string {
	switch s {
	case stageFresh:
		return "fresh"
	case stagePruned:
		return "pruned"
	case stageStaged:
		return "staged"
	case stageFinished:
		return "finished"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type sequencer struct {
	current stage
}

// prune guards delete and unlink: they must run before anything is staged.
func (s *sequencer) prune(step string) error {
	if s.current != stageFresh {
		return fmt.Errorf("%w: %s after reconciler reached %s", ErrOutOfOrder, step, s.current)
	}
	s.current = stagePruned
	return nil
}

// build guards create, update, validate and link. They may repeat until the run finishes.
func (s *sequencer) build(step string) error {
	if s.current == stageFinished {
		return fmt.Errorf("%w: %s after reconciler reached %s", ErrOutOfOrder, step, s.current)
	}
	s.current = stageStaged
	return nil
}

// finish guards the terminal save. A reconciler is single-use after it.
func (s *sequencer) finish(step string) error {
	if s.current == stageFinished {
		return fmt.Errorf("%w: %s after reconciler reached %s", ErrOutOfOrder, step, s.current)
	}
	s.current = stageFinished
	return nil
}

// fresh guards Run, which sequences every step itself.
func (s *sequencer) fresh(step string) error {
	if s.current != stageFresh {
		return fmt.Errorf("%w: %s after reconciler reached %s", ErrOutOfOrder, step, s.current)
	}
	return nil
}
