package ctaphid

import (
	"encoding/binary"
	"encoding/hex"
)

// ChannelID represents CTAP channel ID. Bytes are kept in wire order.
type ChannelID [4]byte

// BROADCAST_CID represents CTAP broadcast channel ID.
var BROADCAST_CID = ChannelID{0xff, 0xff, 0xff, 0xff}

// ChannelIDFromUint32 lays out an allocated channel number in the transport's native order.
func ChannelIDFromUint32(v uint32) ChannelID {
	var cid ChannelID
	binary.NativeEndian.PutUint32(cid[:], v)
	return cid
}

// Uint32 is the inverse of ChannelIDFromUint32.
func (c ChannelID) Uint32() uint32 {
	return binary.NativeEndian.Uint32(c[:])
}

func (c ChannelID) IsBroadcast() bool {
	return c == BROADCAST_CID
}

func (c ChannelID) String() string {
	return hex.EncodeToString(c[:])
}

// Packet is a single HID report exactly as it travels on the wire.
//
//	offset 0: CID (4 bytes)
//	offset 4: CMD | INIT_PACKET_BIT, or SEQ
//	offset 5: BCNTH, BCNTL (init packets only)
//	offset 7 (init) or 5 (cont): DATA, zero padded
type Packet [ReportSize]byte

// Frame is a decoded view of a Packet: either InitFrame or ContFrame.
type Frame interface {
	isFrame()
}

// InitFrame is the first packet of a message. Data aliases the packet it was decoded from.
type InitFrame struct {
	CID     ChannelID
	Command Command
	Length  uint16
	Data    []byte
}

// ContFrame is a continuation packet. Data aliases the packet it was decoded from.
type ContFrame struct {
	CID      ChannelID
	Sequence byte
	Data     []byte
}

func (InitFrame) isFrame() {}
func (ContFrame) isFrame() {}

// Message is a reassembled CTAPHID message.
type Message struct {
	CID     ChannelID
	Command Command
	Data    []byte
}

// InitResponse represents CTAPHID_INIT (0x06) command response.
// https://fidoalliance.org/specs/fido-v2.2-ps-20250228/fido-client-to-authenticator-protocol-v2.2-ps-20250228.html#usb-hid-init
type InitResponse struct {
	Nonce                            []byte
	CID                              ChannelID
	CTAPHIDProtocolVersionIdentifier byte
	MajorDeviceVersion               byte
	MinorDeviceVersion               byte
	BuildDeviceVersion               byte
	CapabilityFlags                  byte
}

func (r *InitResponse) ImplementsWink() bool {
	return r.CapabilityFlags&byte(CAPABILITY_WINK) != 0
}

func (r *InitResponse) ImplementsCBOR() bool {
	return r.CapabilityFlags&byte(CAPABILITY_CBOR) != 0
}

func (r *InitResponse) NotImplementsMSG() bool {
	return r.CapabilityFlags&byte(CAPABILITY_NMSG) != 0
}

// PingResponse represents CTAPHID_PING command response.
// https://fidoalliance.org/specs/fido-v2.2-ps-20250228/fido-client-to-authenticator-protocol-v2.2-ps-20250228.html#usb-hid-ping
type PingResponse struct {
	Bytes []byte
}
