package live

import "github.com/dmitrijs2005/flockapp/internal/client/models"

// ProgramStatus is the state of current program retrieval.
type ProgramStatus int

const (
	// ProgramIdle means no identity, nothing loaded.
	ProgramIdle ProgramStatus = iota
	ProgramLoading
	ProgramLoaded
	ProgramError
)

func (s ProgramStatus) String() string {
	switch s {
	case ProgramIdle:
		return "idle"
	case ProgramLoading:
		return "loading"
	case ProgramLoaded:
		return "loaded"
	case ProgramError:
		return "error"
	}
	return "unknown"
}

// CommentsStatus is the state of the comment feed of the current program.
type CommentsStatus int

const (
	CommentsIdle CommentsStatus = iota
	CommentsLoading
	CommentsLoaded
	CommentsError
)

func (s CommentsStatus) String() string {
	switch s {
	case CommentsIdle:
		return "idle"
	case CommentsLoading:
		return "loading"
	case CommentsLoaded:
		return "loaded"
	case CommentsError:
		return "error"
	}
	return "unknown"
}

// State is a snapshot of the live session. Comments always belong to
// Program.
type State struct {
	Program        *models.Program
	Comments       []models.Comment
	ProgramStatus  ProgramStatus
	CommentsStatus CommentsStatus
	Error          string
}

func (s State) LoadingProgram() bool  { return s.ProgramStatus == ProgramLoading }
func (s State) LoadingComments() bool { return s.CommentsStatus == CommentsLoading }

// ProgramID returns the current program id or "".
func (s State) ProgramID() string {
	if s.Program == nil {
		return ""
	}
	return s.Program.ID
}

func idleState() State {
	return State{Comments: []models.Comment{}}
}
