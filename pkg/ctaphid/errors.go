package ctaphid

import (
	"errors"
)

var (
	ErrMessageTooLarge        = errors.New("ctaphid: message payload too large")
	ErrUnexpectedCommand      = errors.New("ctaphid: unexpected command")
	ErrInvalidResponseMessage = errors.New("ctaphid: invalid response message")
	ErrInvalidNonce           = errors.New("ctaphid: invalid nonce")
	ErrShortReport            = errors.New("ctaphid: short report")
	ErrIncomplete             = errors.New("ctaphid: message incomplete")
)

// ProtocolError is a framing failure detected while reassembling a message.
// CID is the channel of the packet that caused it, which is where the
// CTAPHID_ERROR response goes.
type ProtocolError struct {
	CID  ChannelID
	Code Error
}

func (e *ProtocolError) Error() string {
	return "ctaphid: " + e.Code.String() + " on channel " + e.CID.String()
}

// Message is the CTAPHID_ERROR response reporting this failure to the peer.
func (e *ProtocolError) Message() *Message {
	return NewErrorMessage(e.CID, e.Code)
}

// DeviceError is a CTAPHID_ERROR response received from an authenticator.
type DeviceError struct {
	Command Command
	Code    Error
}

func newDeviceError(cmd Command, data []byte) error {
	if len(data) < 1 {
		return ErrInvalidResponseMessage
	}

	return &DeviceError{
		Command: cmd,
		Code:    Error(data[0]),
	}
}

func (e *DeviceError) Error() string {
	return e.Command.String() + " failed (" + e.Code.String() + ")"
}
