package ctaphid

import "encoding/binary"

// NewInitPacket builds an initialization packet. Data beyond InitPayloadLength is ignored.
func NewInitPacket(cid ChannelID, cmd Command, length uint16, data []byte) Packet {
	var p Packet
	copy(p[0:4], cid[:])
	p[4] = byte(cmd) | INIT_PACKET_BIT
	binary.BigEndian.PutUint16(p[5:7], length)
	copy(p[7:], data)
	return p
}

// NewContPacket builds a continuation packet. Data beyond ContPayloadLength is ignored.
func NewContPacket(cid ChannelID, seq byte, data []byte) Packet {
	var p Packet
	copy(p[0:4], cid[:])
	p[4] = seq &^ INIT_PACKET_BIT
	copy(p[5:], data)
	return p
}

func (p *Packet) CID() ChannelID {
	return ChannelID(p[0:4])
}

// IsInitial reports whether the CMD/SEQ byte has INIT_PACKET_BIT set.
func (p *Packet) IsInitial() bool {
	return p[4]&INIT_PACKET_BIT != 0
}

func (p *Packet) IsContinuation() bool {
	return !p.IsInitial()
}

// Frame decodes the packet into an InitFrame or a ContFrame.
func (p *Packet) Frame() Frame {
	if p.IsInitial() {
		return InitFrame{
			CID:     p.CID(),
			Command: Command(p[4] &^ INIT_PACKET_BIT),
			Length:  binary.BigEndian.Uint16(p[5:7]),
			Data:    p[7:],
		}
	}

	return ContFrame{
		CID:      p.CID(),
		Sequence: p[4],
		Data:     p[5:],
	}
}
