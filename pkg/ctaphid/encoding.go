package ctaphid

import (
	"bufio"
	"io"
	"iter"

	"github.com/samber/lo"
)

// PacketWriter accepts packets produced by fragmentation.
type PacketWriter interface {
	WritePacket(p *Packet) error
}

// PacketWriterFunc adapts a function to PacketWriter.
type PacketWriterFunc func(p *Packet) error

func (f PacketWriterFunc) WritePacket(p *Packet) error {
	return f(p)
}

// NewMessage creates a new message.
func NewMessage(cid ChannelID, cmd Command, data []byte) (*Message, error) {
	if len(data) > MaxPayloadLength {
		return nil, ErrMessageTooLarge
	}

	return &Message{
		CID:     cid,
		Command: cmd &^ Command(INIT_PACKET_BIT),
		Data:    data,
	}, nil
}

// NewErrorMessage creates a CTAPHID_ERROR message carrying code.
func NewErrorMessage(cid ChannelID, code Error) *Message {
	return &Message{
		CID:     cid,
		Command: CTAPHID_ERROR,
		Data:    []byte{byte(code)},
	}
}

// PacketCount is the number of packets the message fragments into.
func (m *Message) PacketCount() int {
	if len(m.Data) <= InitPayloadLength {
		return 1
	}
	rest := len(m.Data) - InitPayloadLength
	return 1 + (rest+ContPayloadLength-1)/ContPayloadLength
}

// Packet returns the i-th packet of the fragmented message. A message over
// MaxPayloadLength has no packets.
func (m *Message) Packet(i int) (Packet, bool) {
	if len(m.Data) > MaxPayloadLength || i < 0 || i >= m.PacketCount() {
		return Packet{}, false
	}

	if i == 0 {
		return NewInitPacket(m.CID, m.Command, uint16(len(m.Data)), lo.Slice(m.Data, 0, InitPayloadLength)), true
	}

	start := InitPayloadLength + (i-1)*ContPayloadLength
	return NewContPacket(m.CID, byte(i-1), lo.Slice(m.Data, start, start+ContPayloadLength)), true
}

// Packets yields the initialization packet followed by continuation packets
// with sequence numbers 0, 1, 2, ... It yields nothing for a message over
// MaxPayloadLength, whose sequence numbers would wrap.
func (m *Message) Packets() iter.Seq[Packet] {
	return func(yield func(Packet) bool) {
		if len(m.Data) > MaxPayloadLength {
			return
		}

		// DATA starts from offset 7
		if !yield(NewInitPacket(m.CID, m.Command, uint16(len(m.Data)), lo.Slice(m.Data, 0, InitPayloadLength))) {
			return
		}

		// if data is longer than the init payload, split the rest into chunks
		// carried by continuation packets
		if len(m.Data) > InitPayloadLength {
			chunks := lo.Chunk(m.Data[InitPayloadLength:], ContPayloadLength)
			for i, chunk := range chunks {
				if !yield(NewContPacket(m.CID, byte(i), chunk)) {
					return
				}
			}
		}
	}
}

// Fragment streams the message packets into w.
func (m *Message) Fragment(w PacketWriter) error {
	if len(m.Data) > MaxPayloadLength {
		return ErrMessageTooLarge
	}

	for p := range m.Packets() {
		if err := w.WritePacket(&p); err != nil {
			return err
		}
	}

	return nil
}

// WriteTo writes the message to a HID device, one report per write.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	var total int64
	err := m.Fragment(PacketWriterFunc(func(p *Packet) error {
		// We cannot write directly to the device because every writing should be a single packet.
		buf := bufio.NewWriterSize(w, ReportSize+1)

		// Report ID in our case is always 0.
		if err := buf.WriteByte(0x00); err != nil {
			return err
		}

		n, err := buf.Write(p[:])
		if err != nil {
			return err
		}
		total += int64(n) + 1

		// Flush the buffer to the device.
		return buf.Flush()
	}))
	if err != nil {
		return 0, err
	}

	return total, nil
}
