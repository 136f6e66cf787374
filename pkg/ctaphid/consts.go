//go:generate stringer -type=Command,Error -output=consts_string.go
package ctaphid

// Command represents CTAPHID command.
type Command byte

const (
	CTAPHID_MSG       Command = 0x03
	CTAPHID_CBOR      Command = 0x10
	CTAPHID_INIT      Command = 0x06
	CTAPHID_PING      Command = 0x01
	CTAPHID_CANCEL    Command = 0x11
	CTAPHID_ERROR     Command = 0x3f
	CTAPHID_KEEPALIVE Command = 0x3b
	CTAPHID_WINK      Command = 0x08
	CTAPHID_LOCK      Command = 0x04
)

type CapabilityFlag byte

const (
	CAPABILITY_WINK CapabilityFlag = 0x01
	CAPABILITY_CBOR CapabilityFlag = 0x04
	CAPABILITY_NMSG CapabilityFlag = 0x08
)

// Error is the single byte carried by a CTAPHID_ERROR response.
type Error byte

const (
	ERR_INVALID_CMD     Error = 0x01
	ERR_INVALID_PAR     Error = 0x02
	ERR_INVALID_LEN     Error = 0x03
	ERR_INVALID_SEQ     Error = 0x04
	ERR_MSG_TIMEOUT     Error = 0x05
	ERR_CHANNEL_BUSY    Error = 0x06
	ERR_LOCK_REQUIRED   Error = 0x0A
	ERR_INVALID_CHANNEL Error = 0x0B
	ERR_OTHER           Error = 0x7F
)

// INIT_PACKET_BIT marks an initialization packet in the CMD/SEQ byte.
const INIT_PACKET_BIT byte = 0x80

// CTAPHID_PROTOCOL_VERSION is reported in the INIT response.
const CTAPHID_PROTOCOL_VERSION byte = 2

const (
	// ReportSize is the size of a FIDO HID report.
	ReportSize = 64

	// InitPayloadLength is the amount of payload an initialization packet carries:
	// CID(4) + CMD(1) + BCNTH(1) + BCNTL(1) precede it.
	InitPayloadLength = ReportSize - 7

	// ContPayloadLength is the amount of payload a continuation packet carries:
	// CID(4) + SEQ(1) precede it.
	ContPayloadLength = ReportSize - 5

	// MaxSequence is the last sequence number a continuation packet may carry.
	MaxSequence = 0x7f

	// MaxPayloadLength is the largest payload a single message may carry.
	MaxPayloadLength = InitPayloadLength + (MaxSequence+1)*ContPayloadLength

	// InitNonceLength is the size of the CTAPHID_INIT challenge.
	InitNonceLength = 8

	// InitResponseLength is the size of the CTAPHID_INIT response payload.
	InitResponseLength = 17
)
