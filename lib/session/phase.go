package session

// Phase is a session's position in its lifecycle.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	AwaitingHandshake
	Identifying
	Registered
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingHandshake:
		return "awaiting-handshake"
	case Identifying:
		return "identifying"
	case Registered:
		return "registered"
	default:
		return "unknown"
	}
}

// Connected reports whether a session in this phase holds a connection.
func (p Phase) Connected() bool {
	return p >= AwaitingHandshake
}

// CanTransition reports whether the state machine allows moving from p to next.
func (p Phase) CanTransition(next Phase) bool {
	switch p {
	case Disconnected:
		return next == Connecting
	case Connecting:
		return next == AwaitingHandshake || next == Disconnected
	case AwaitingHandshake:
		return next == Identifying || next == Disconnected
	case Identifying:
		return next == Registered || next == Disconnected
	case Registered:
		return next == Disconnected
	default:
		return false
	}
}
