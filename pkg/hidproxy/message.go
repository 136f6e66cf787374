package hidproxy

import (
	"encoding/binary"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var encMode, _ = cbor.CTAP2EncOptions().EncMode()

type Command byte

const (
	// CommandEnumerate asks for the devices behind the endpoint; the reply
	// carries a CBOR array of device infos.
	CommandEnumerate Command = iota + 1
	// CommandStart opens the device whose path is the CBOR body. No reply is
	// sent; from then on the stream carries raw HID reports.
	CommandStart
)

// Message is a control frame: CMD(1) ‖ LEN(2, big endian) ‖ DATA(LEN).
type Message struct {
	Command Command
	length  uint16
	Data    []byte
}

func ParseMessage(pipe io.Reader) (*Message, error) {
	hdr := make([]byte, 3)
	if _, err := io.ReadFull(pipe, hdr); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint16(hdr[1:])

	bData := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(pipe, bData); err != nil {
			return nil, err
		}
	}

	return &Message{
		Command: Command(hdr[0]),
		length:  length,
		Data:    bData,
	}, nil
}

// NewMessage builds a control frame with a CTAP2 canonical CBOR body.
func NewMessage(cmd Command, data any) (*Message, error) {
	return newMessage(encMode, cmd, data)
}

func newMessage(em cbor.EncMode, cmd Command, data any) (*Message, error) {
	msg := &Message{
		Command: cmd,
	}

	b := make([]byte, 0)
	var err error
	if data != nil {
		b, err = em.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	if len(b) > 0xffff {
		return nil, ErrMessageTooLarge
	}

	msg.length = uint16(len(b))
	msg.Data = b

	return msg, nil
}

// Decode unmarshals the CBOR body into v.
func (m *Message) Decode(v any) error {
	return cbor.Unmarshal(m.Data, v)
}

func (m *Message) WriteTo(w io.Writer) (n int64, err error) {
	b := make([]byte, 3, 3+len(m.Data))
	b[0] = byte(m.Command)
	binary.BigEndian.PutUint16(b[1:], m.length)
	b = append(b, m.Data...)

	cnt, err := w.Write(b)
	return int64(cnt), err
}
