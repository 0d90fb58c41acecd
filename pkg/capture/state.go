package capture

import "fmt"

// State is a state of the capture lifecycle.
type State int

// States in lifecycle order. StateDone and StateHaltFault are terminal.
const (
	StateSelfTest State = iota
	StateArmed
	StateWaitProximity
	StateWaitImpact
	StateCapturing
	StateStoring
	StateVerifying
	StateDone
	StateHaltFault
)

var stateNames = []string{
	"SELF_TEST",
	"ARMED",
	"WAIT_PROXIMITY",
	"WAIT_IMPACT",
	"CAPTURING",
	"STORING",
	"VERIFYING",
	"DONE",
	"HALT_FAULT",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateHaltFault
}
