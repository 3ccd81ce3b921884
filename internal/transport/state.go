package transport

// State is the connection state of a Transport.
type State int32

const (
	// Disconnected holds no port. Initial state and the target of every failure.
	Disconnected State = iota
	// Connecting is held while a port open is in flight.
	Connecting
	// Connected holds an open port exclusively.
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
