package capture

import "fmt"

// State is a step of the monitor session.
type State int

const (
	StateAwaitingPrompt State = iota
	StateCommandSent
	StateAwaitingEcho
	StateReadingLines
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingPrompt:
		return "AwaitingPrompt"
	case StateCommandSent:
		return "CommandSent"
	case StateAwaitingEcho:
		return "AwaitingEcho"
	case StateReadingLines:
		return "ReadingLines"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Description returns a phrase suitable for error messages.
func (s State) Description() string {
	switch s {
	case StateAwaitingPrompt:
		return "waiting for the monitor prompt"
	case StateCommandSent:
		return "sending the dump command"
	case StateAwaitingEcho:
		return "reading the command echo"
	case StateReadingLines:
		return "reading dump lines"
	case StateDone:
		return "finishing"
	default:
		return s.String()
	}
}
