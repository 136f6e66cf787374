// Package dispatch executes reassembled CTAPHID messages and builds responses.
package dispatch

import (
	"encoding/binary"
	"log/slog"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
	"github.com/go-ctap/authenticator/pkg/options"
	"github.com/go-ctap/authenticator/pkg/status"
)

type Dispatcher struct {
	logger        *slog.Logger
	indicator     status.Indicator
	allocator     Allocator
	deviceVersion [3]byte
	capabilities  byte
	wink          bool
}

// New creates a dispatcher with its own channel counter.
func New(opts ...options.Option) *Dispatcher {
	return NewWithAllocator(NewCounter(), opts...)
}

func NewWithAllocator(allocator Allocator, opts ...options.Option) *Dispatcher {
	oo := options.NewOptions(opts...)

	// MSG is never implemented here.
	capabilities := byte(ctaphid.CAPABILITY_NMSG)
	if oo.Wink {
		capabilities |= byte(ctaphid.CAPABILITY_WINK)
	}

	return &Dispatcher{
		logger:        oo.Logger,
		indicator:     oo.Indicator,
		allocator:     allocator,
		deviceVersion: oo.DeviceVersion,
		capabilities:  capabilities,
		wink:          oo.Wink,
	}
}

// Dispatch executes msg and returns the response to send. Responses always
// go out on the channel the request arrived on.
func (d *Dispatcher) Dispatch(msg *ctaphid.Message) *ctaphid.Message {
	d.logger.Debug("dispatch", "cid", msg.CID, "command", msg.Command, "length", len(msg.Data))

	switch msg.Command {
	case ctaphid.CTAPHID_INIT:
		return d.init(msg)
	case ctaphid.CTAPHID_PING:
		return &ctaphid.Message{
			CID:     msg.CID,
			Command: ctaphid.CTAPHID_PING,
			Data:    msg.Data,
		}
	case ctaphid.CTAPHID_WINK:
		if d.wink {
			d.indicator.Indicate(status.Wink)
			return &ctaphid.Message{
				CID:     msg.CID,
				Command: ctaphid.CTAPHID_WINK,
			}
		}
	}

	return ctaphid.NewErrorMessage(msg.CID, ctaphid.ERR_INVALID_CMD)
}

func (d *Dispatcher) init(msg *ctaphid.Message) *ctaphid.Message {
	if len(msg.Data) < ctaphid.InitNonceLength {
		d.logger.Warn("INIT payload too short", "cid", msg.CID, "length", len(msg.Data))
		return ctaphid.NewErrorMessage(msg.CID, ctaphid.ERR_INVALID_LEN)
	}

	nonce := binary.LittleEndian.Uint64(msg.Data[:ctaphid.InitNonceLength])
	cid := d.allocator.Allocate()

	resp := &ctaphid.InitResponse{
		Nonce:                            binary.LittleEndian.AppendUint64(nil, nonce),
		CID:                              cid,
		CTAPHIDProtocolVersionIdentifier: ctaphid.CTAPHID_PROTOCOL_VERSION,
		MajorDeviceVersion:               d.deviceVersion[0],
		MinorDeviceVersion:               d.deviceVersion[1],
		BuildDeviceVersion:               d.deviceVersion[2],
		CapabilityFlags:                  d.capabilities,
	}

	data, err := resp.MarshalBinary()
	if err != nil {
		return ctaphid.NewErrorMessage(msg.CID, ctaphid.ERR_OTHER)
	}

	d.logger.Info("channel allocated", "cid", cid, "on", msg.CID)

	return &ctaphid.Message{
		CID:     msg.CID,
		Command: ctaphid.CTAPHID_INIT,
		Data:    data,
	}
}
