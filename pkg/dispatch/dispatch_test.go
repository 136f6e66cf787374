package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
	"github.com/go-ctap/authenticator/pkg/options"
	"github.com/go-ctap/authenticator/pkg/status"
)

func TestDispatcher_Init(t *testing.T) {
	d := New()

	nonces := [][]byte{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33},
	}

	cids := make([]ctaphid.ChannelID, 0)
	for _, nonce := range nonces {
		resp := d.Dispatch(&ctaphid.Message{
			CID:     ctaphid.BROADCAST_CID,
			Command: ctaphid.CTAPHID_INIT,
			Data:    nonce,
		})

		require.Equal(t, ctaphid.CTAPHID_INIT, resp.Command)
		assert.Equal(t, ctaphid.BROADCAST_CID, resp.CID)
		require.Len(t, resp.Data, ctaphid.InitResponseLength)

		r, err := ctaphid.UnmarshalInitResponse(resp.Data)
		require.NoError(t, err)
		assert.Equal(t, nonce, r.Nonce)
		assert.NotEqual(t, ctaphid.ChannelID{}, r.CID)
		assert.NotEqual(t, ctaphid.BROADCAST_CID, r.CID)
		assert.Equal(t, ctaphid.CTAPHID_PROTOCOL_VERSION, r.CTAPHIDProtocolVersionIdentifier)
		assert.Equal(t, []byte{0, 0, 1}, []byte{r.MajorDeviceVersion, r.MinorDeviceVersion, r.BuildDeviceVersion})
		assert.True(t, r.NotImplementsMSG())
		assert.False(t, r.ImplementsWink())
		assert.Equal(t, byte(ctaphid.CAPABILITY_NMSG), r.CapabilityFlags)

		cids = append(cids, r.CID)
	}

	assert.NotEqual(t, cids[0], cids[1])
}

func TestDispatcher_InitOnAllocatedChannel(t *testing.T) {
	d := New()
	cid := ctaphid.ChannelID{0, 0, 0, 42}

	resp := d.Dispatch(&ctaphid.Message{
		CID:     cid,
		Command: ctaphid.CTAPHID_INIT,
		Data:    make([]byte, 8),
	})

	assert.Equal(t, cid, resp.CID)
	assert.Equal(t, ctaphid.CTAPHID_INIT, resp.Command)
}

func TestDispatcher_InitShortNonce(t *testing.T) {
	d := New()

	resp := d.Dispatch(&ctaphid.Message{
		CID:     ctaphid.BROADCAST_CID,
		Command: ctaphid.CTAPHID_INIT,
		Data:    []byte{1, 2, 3},
	})

	assert.Equal(t, ctaphid.CTAPHID_ERROR, resp.Command)
	assert.Equal(t, ctaphid.BROADCAST_CID, resp.CID)
	assert.Equal(t, []byte{byte(ctaphid.ERR_INVALID_LEN)}, resp.Data)
}

func TestDispatcher_Ping(t *testing.T) {
	d := New()
	cid := ctaphid.ChannelID{0, 0, 0, 1}

	resp := d.Dispatch(&ctaphid.Message{
		CID:     cid,
		Command: ctaphid.CTAPHID_PING,
		Data:    []byte{0x01, 0x02, 0x03},
	})

	assert.Equal(t, cid, resp.CID)
	assert.Equal(t, ctaphid.CTAPHID_PING, resp.Command)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, resp.Data)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := New()
	cid := ctaphid.ChannelID{0, 0, 0, 2}

	for _, cmd := range []ctaphid.Command{ctaphid.CTAPHID_MSG, ctaphid.CTAPHID_CBOR, ctaphid.CTAPHID_WINK, 0x7f} {
		resp := d.Dispatch(&ctaphid.Message{
			CID:     cid,
			Command: cmd,
			Data:    []byte{0xff},
		})

		assert.Equal(t, cid, resp.CID)
		assert.Equal(t, ctaphid.CTAPHID_ERROR, resp.Command)
		assert.Equal(t, []byte{byte(ctaphid.ERR_INVALID_CMD)}, resp.Data)
	}
}

func TestDispatcher_Wink(t *testing.T) {
	var signals []status.Status
	d := New(
		options.WithWink(),
		options.WithIndicator(status.IndicatorFunc(func(s status.Status) {
			signals = append(signals, s)
		})),
	)
	cid := ctaphid.ChannelID{0, 0, 0, 3}

	resp := d.Dispatch(&ctaphid.Message{CID: cid, Command: ctaphid.CTAPHID_WINK})
	assert.Equal(t, ctaphid.CTAPHID_WINK, resp.Command)
	assert.Empty(t, resp.Data)
	assert.Equal(t, []status.Status{status.Wink}, signals)

	initResp := d.Dispatch(&ctaphid.Message{CID: cid, Command: ctaphid.CTAPHID_INIT, Data: make([]byte, 8)})
	r, err := ctaphid.UnmarshalInitResponse(initResp.Data)
	require.NoError(t, err)
	assert.True(t, r.ImplementsWink())
	assert.Equal(t, byte(ctaphid.CAPABILITY_NMSG|ctaphid.CAPABILITY_WINK), r.CapabilityFlags)
}

func TestCounter_Allocate(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, uint32(1), c.Allocate().Uint32())
	assert.Equal(t, uint32(2), c.Allocate().Uint32())

	c.next = 0xfffffffe
	assert.Equal(t, uint32(0xfffffffe), c.Allocate().Uint32())
	assert.Equal(t, uint32(1), c.Allocate().Uint32())
}
