package ctaphid

import (
	"errors"
	"io"

	"github.com/samber/mo"
)

// PacketSource gives indexed access to buffered packets without consuming them.
type PacketSource interface {
	PeekN(n int) mo.Option[*Packet]
}

// Assembler reassembles a message from packets fed one at a time.
// The zero value is ready to use.
type Assembler struct {
	msg    *Message
	filled int
	seq    byte
}

// InProgress reports whether an initialization packet has been accepted and
// continuation packets are still expected.
func (a *Assembler) InProgress() bool {
	return a.msg != nil
}

// CID is the channel of the message being reassembled.
func (a *Assembler) CID() ChannelID {
	if a.msg == nil {
		return ChannelID{}
	}
	return a.msg.CID
}

// Reset abandons the message being reassembled.
func (a *Assembler) Reset() {
	a.msg = nil
	a.filled = 0
	a.seq = 0
}

// Feed consumes one packet. It returns the message once its last packet has
// been fed, (nil, nil) while continuation packets are still expected, or a
// *ProtocolError naming the offending packet's channel. After an error the
// assembler is reset.
func (a *Assembler) Feed(p *Packet) (*Message, error) {
	switch f := p.Frame().(type) {
	case InitFrame:
		if a.msg != nil {
			a.Reset()
			return nil, &ProtocolError{CID: f.CID, Code: ERR_INVALID_SEQ}
		}
		if int(f.Length) > MaxPayloadLength {
			return nil, &ProtocolError{CID: f.CID, Code: ERR_INVALID_LEN}
		}

		a.msg = &Message{
			CID:     f.CID,
			Command: f.Command,
			Data:    make([]byte, f.Length),
		}
		a.filled = copy(a.msg.Data, f.Data)
	case ContFrame:
		if a.msg == nil {
			return nil, &ProtocolError{CID: f.CID, Code: ERR_MSG_TIMEOUT}
		}
		if f.Sequence != a.seq {
			a.Reset()
			return nil, &ProtocolError{CID: f.CID, Code: ERR_INVALID_SEQ}
		}

		a.filled += copy(a.msg.Data[a.filled:], f.Data)
		a.seq++
	}

	if a.filled < len(a.msg.Data) {
		return nil, nil
	}

	msg := a.msg
	a.Reset()
	return msg, nil
}

// Reassemble peeks packets from src until a whole message is available.
// It returns the message and the number of packets it spans. When src runs
// out before the message is complete it returns ErrIncomplete and zero
// packets; the caller should retry once more packets are buffered. On a
// *ProtocolError the returned count covers every packet examined, including
// the offending one, so the caller can retire them.
func Reassemble(src PacketSource) (*Message, int, error) {
	var a Assembler
	for n := 0; ; n++ {
		p, ok := src.PeekN(n).Get()
		if !ok {
			return nil, 0, ErrIncomplete
		}

		msg, err := a.Feed(p)
		if err != nil {
			return nil, n + 1, err
		}
		if msg != nil {
			return msg, n + 1, nil
		}
	}
}

// ReadFrom reads reports from device until a whole message is assembled.
func (m *Message) ReadFrom(device io.Reader) (int64, error) {
	var (
		a         Assembler
		bytesRead int64
	)

	for {
		var p Packet
		n, err := io.ReadFull(device, p[:])
		bytesRead += int64(n)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return bytesRead, ErrShortReport
			}
			return bytesRead, err
		}

		msg, err := a.Feed(&p)
		if err != nil {
			return bytesRead, err
		}
		if msg != nil {
			*m = *msg
			return bytesRead, nil
		}
	}
}

// ReadMessage blocks on device until a whole message is assembled.
func ReadMessage(device io.Reader) (*Message, error) {
	m := new(Message)
	if _, err := m.ReadFrom(device); err != nil {
		return nil, err
	}
	return m, nil
}
