package hidproxy

import "errors"

var (
	ErrMessageTooLarge   = errors.New("hidproxy: message too large")
	ErrUnexpectedCommand = errors.New("hidproxy: unexpected command")
	ErrUnknownDevice     = errors.New("hidproxy: unknown device path")
	ErrTransportClosed   = errors.New("hidproxy: transport closed")
)
