package ctaphid

import (
	"crypto/subtle"
	"io"
)

// transact writes a request and waits for the response on the same channel,
// skipping keepalives and traffic addressed to other channels.
func transact(dev io.ReadWriter, cid ChannelID, cmd Command, data []byte) (*Message, error) {
	msg, err := NewMessage(cid, cmd, data)
	if err != nil {
		return nil, err
	}

	if _, err := msg.WriteTo(dev); err != nil {
		return nil, err
	}

	for {
		resp, err := ReadMessage(dev)
		if err != nil {
			return nil, err
		}

		if resp.CID != cid {
			continue
		}

		switch resp.Command {
		case cmd:
			return resp, nil
		case CTAPHID_ERROR:
			return nil, newDeviceError(cmd, resp.Data)
		case CTAPHID_KEEPALIVE:
			continue
		default:
			return nil, ErrUnexpectedCommand
		}
	}
}

func Init(dev io.ReadWriter, cid ChannelID, nonce []byte) (*InitResponse, error) {
	if len(nonce) != InitNonceLength {
		return nil, ErrInvalidNonce
	}

	resp, err := transact(dev, cid, CTAPHID_INIT, nonce)
	if err != nil {
		return nil, err
	}

	r, err := UnmarshalInitResponse(resp.Data)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare(r.Nonce, nonce) != 1 {
		return nil, ErrInvalidNonce
	}

	return r, nil
}

func Ping(dev io.ReadWriter, cid ChannelID, ping []byte) (*PingResponse, error) {
	resp, err := transact(dev, cid, CTAPHID_PING, ping)
	if err != nil {
		return nil, err
	}

	return &PingResponse{
		Bytes: resp.Data,
	}, nil
}

func Wink(dev io.ReadWriter, cid ChannelID) error {
	_, err := transact(dev, cid, CTAPHID_WINK, nil)
	return err
}

// UnmarshalInitResponse parses the payload of a CTAPHID_INIT response.
func UnmarshalInitResponse(data []byte) (*InitResponse, error) {
	if len(data) < InitResponseLength {
		return nil, ErrInvalidResponseMessage
	}

	return &InitResponse{
		Nonce:                            data[:8],
		CID:                              ChannelID(data[8 : 8+4]),
		CTAPHIDProtocolVersionIdentifier: data[12],
		MajorDeviceVersion:               data[13],
		MinorDeviceVersion:               data[14],
		BuildDeviceVersion:               data[15],
		CapabilityFlags:                  data[16],
	}, nil
}

// MarshalBinary lays the response out as the CTAPHID_INIT payload.
func (r *InitResponse) MarshalBinary() ([]byte, error) {
	if len(r.Nonce) != InitNonceLength {
		return nil, ErrInvalidNonce
	}

	b := make([]byte, 0, InitResponseLength)
	b = append(b, r.Nonce...)
	b = append(b, r.CID[:]...)
	b = append(b,
		r.CTAPHIDProtocolVersionIdentifier,
		r.MajorDeviceVersion,
		r.MinorDeviceVersion,
		r.BuildDeviceVersion,
		r.CapabilityFlags,
	)

	return b, nil
}
