// Package workflow holds the upload state machine shared by the terminal UI
// and the headless convert command.
package workflow

import "github.com/nconklindev/sheetdrop/internal/types"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInFlight:
		return "in-flight"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

const (
	SuccessMessage = "Files converted and downloaded successfully!"
	FailureMessage = "Failed to convert the files."
)

// State is everything the user can see about the workflow.
type State struct {
	Files    []types.SelectedFile
	Rejected []types.Rejection
	Phase    Phase
	Message  string
	Result   *types.ConversionResult
}

func (s State) InFlight() bool {
	return s.Phase == PhaseInFlight
}

type Event interface {
	isEvent()
}

// Dropped replaces the selected set with a new drop.
type Dropped struct {
	Files    []types.SelectedFile
	Rejected []types.Rejection
}

type Started struct{}

type Succeeded struct {
	Result *types.ConversionResult
}

type Failed struct {
	Err error
}

// Settled closes a submission. A submission still in flight at this point
// never reported an outcome and is treated as failed.
type Settled struct{}

func (Dropped) isEvent()   {}
func (Started) isEvent()   {}
func (Succeeded) isEvent() {}
func (Failed) isEvent()    {}
func (Settled) isEvent()   {}

// Apply returns the state that follows s after e.
func Apply(s State, e Event) State {
	switch e := e.(type) {
	case Dropped:
		s.Files = append([]types.SelectedFile(nil), e.Files...)
		s.Rejected = append([]types.Rejection(nil), e.Rejected...)

	case Started:
		s.Phase = PhaseInFlight
		s.Message = ""
		s.Result = nil

	case Succeeded:
		s.Phase = PhaseSucceeded
		s.Message = SuccessMessage
		s.Result = e.Result

	case Failed:
		s.Phase = PhaseFailed
		s.Message = FailureMessage
		s.Result = nil

	case Settled:
		if s.Phase == PhaseInFlight {
			s.Phase = PhaseFailed
			s.Message = FailureMessage
		}
	}
	return s
}
