package session

import "github.com/go-ctap/authenticator/pkg/ctaphid"

// Transport moves whole HID reports. Every method must return immediately.
type Transport interface {
	// DataAvailable reports whether TryReceive would yield a packet.
	DataAvailable() bool
	// ReadyToSend reports whether TrySend would accept a packet.
	ReadyToSend() bool
	TryReceive() (ctaphid.Packet, bool)
	TrySend(p ctaphid.Packet) bool
}

// StateNotifier is implemented by transports that report connection state
// changes. Run applies them between ticks.
type StateNotifier interface {
	States() <-chan State
}

// Handler turns a reassembled request into its response.
type Handler interface {
	Dispatch(msg *ctaphid.Message) *ctaphid.Message
}

type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateConfigured
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateConfigured:
		return "configured"
	default:
		return "unknown"
	}
}
