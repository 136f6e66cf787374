package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
	"github.com/go-ctap/authenticator/pkg/dispatch"
	"github.com/go-ctap/authenticator/pkg/options"
	"github.com/go-ctap/authenticator/pkg/status"
)

// fakeTransport is an in-memory transport; rx holds packets from the host,
// tx collects packets sent to it.
type fakeTransport struct {
	rx      []ctaphid.Packet
	tx      []ctaphid.Packet
	blocked bool
	states  chan State
}

func (f *fakeTransport) DataAvailable() bool { return len(f.rx) > 0 }
func (f *fakeTransport) ReadyToSend() bool   { return !f.blocked }

func (f *fakeTransport) TryReceive() (ctaphid.Packet, bool) {
	if len(f.rx) == 0 {
		return ctaphid.Packet{}, false
	}
	p := f.rx[0]
	f.rx = f.rx[1:]
	return p, true
}

func (f *fakeTransport) TrySend(p ctaphid.Packet) bool {
	if f.blocked {
		return false
	}
	f.tx = append(f.tx, p)
	return true
}

func (f *fakeTransport) States() <-chan State { return f.states }

func (f *fakeTransport) write(t *testing.T, m *ctaphid.Message) {
	t.Helper()
	for p := range m.Packets() {
		f.rx = append(f.rx, p)
	}
}

// messages reassembles everything the driver has sent so far.
func (f *fakeTransport) messages(t *testing.T) []*ctaphid.Message {
	t.Helper()

	var (
		a   ctaphid.Assembler
		out []*ctaphid.Message
	)
	for i := range f.tx {
		msg, err := a.Feed(&f.tx[i])
		require.NoError(t, err)
		if msg != nil {
			out = append(out, msg)
		}
	}
	require.False(t, a.InProgress(), "partial response on the wire")

	return out
}

func newDriver(t *testing.T, opts ...options.Option) (*Driver, *fakeTransport) {
	t.Helper()

	tr := &fakeTransport{}
	d := New(tr, dispatch.New(opts...), opts...)
	d.SetState(StateConfigured)

	return d, tr
}

func tickN(d *Driver, n int) {
	for i := 0; i < n; i++ {
		d.Tick()
	}
}

func TestDriver_Ping(t *testing.T) {
	d, tr := newDriver(t)
	cid := ctaphid.ChannelID{0, 0, 0, 1}

	req, err := ctaphid.NewMessage(cid, ctaphid.CTAPHID_PING, []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	tr.write(t, req)

	tickN(d, 3)

	msgs := tr.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, cid, msgs[0].CID)
	assert.Equal(t, ctaphid.CTAPHID_PING, msgs[0].Command)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, msgs[0].Data)
}

func TestDriver_PingLargerThanQueues(t *testing.T) {
	d, tr := newDriver(t)
	cid := ctaphid.ChannelID{0, 0, 0, 1}

	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i)
	}

	req, err := ctaphid.NewMessage(cid, ctaphid.CTAPHID_PING, data)
	require.NoError(t, err)
	require.Greater(t, req.PacketCount(), options.DefaultQueueCapacity)
	tr.write(t, req)

	tickN(d, 3*req.PacketCount())

	msgs := tr.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, data, msgs[0].Data)
}

func TestDriver_InitAllocatesDistinctChannels(t *testing.T) {
	d, tr := newDriver(t)

	nonces := [][]byte{{1, 1, 1, 1, 1, 1, 1, 1}, {2, 2, 2, 2, 2, 2, 2, 2}}
	for _, nonce := range nonces {
		req, err := ctaphid.NewMessage(ctaphid.BROADCAST_CID, ctaphid.CTAPHID_INIT, nonce)
		require.NoError(t, err)
		tr.write(t, req)
	}

	tickN(d, 10)

	msgs := tr.messages(t)
	require.Len(t, msgs, 2)

	var cids []ctaphid.ChannelID
	for i, msg := range msgs {
		assert.Equal(t, ctaphid.BROADCAST_CID, msg.CID)
		r, err := ctaphid.UnmarshalInitResponse(msg.Data)
		require.NoError(t, err)
		assert.Equal(t, nonces[i], r.Nonce)
		cids = append(cids, r.CID)
	}
	assert.NotEqual(t, cids[0], cids[1])
}

func TestDriver_InvalidSequenceResynchronizes(t *testing.T) {
	var signals []status.Status
	d, tr := newDriver(t, options.WithIndicator(status.IndicatorFunc(func(s status.Status) {
		signals = append(signals, s)
	})))
	cid := ctaphid.ChannelID{0, 0, 0, 7}

	tr.rx = append(tr.rx,
		ctaphid.NewInitPacket(cid, ctaphid.CTAPHID_PING, ctaphid.InitPayloadLength+10, nil),
		ctaphid.NewContPacket(cid, 1, nil),
		// leftover of the broken message
		ctaphid.NewContPacket(cid, 2, nil),
	)
	ping, err := ctaphid.NewMessage(cid, ctaphid.CTAPHID_PING, []byte("ok"))
	require.NoError(t, err)
	tr.write(t, ping)

	tickN(d, 10)

	msgs := tr.messages(t)
	require.Len(t, msgs, 2)

	assert.Equal(t, ctaphid.CTAPHID_ERROR, msgs[0].Command)
	assert.Equal(t, cid, msgs[0].CID)
	assert.Equal(t, []byte{byte(ctaphid.ERR_INVALID_SEQ)}, msgs[0].Data)

	assert.Equal(t, ctaphid.CTAPHID_PING, msgs[1].Command)
	assert.Equal(t, []byte("ok"), msgs[1].Data)

	assert.Contains(t, signals, status.Error)
}

func TestDriver_DiscardsOrphanContinuation(t *testing.T) {
	d, tr := newDriver(t)
	cid := ctaphid.ChannelID{0, 0, 0, 8}

	tr.rx = append(tr.rx, ctaphid.NewContPacket(cid, 0, nil))
	ping, err := ctaphid.NewMessage(cid, ctaphid.CTAPHID_PING, []byte{9})
	require.NoError(t, err)
	tr.write(t, ping)

	tickN(d, 5)

	msgs := tr.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, ctaphid.CTAPHID_PING, msgs[0].Command)
}

func TestDriver_UnknownCommand(t *testing.T) {
	d, tr := newDriver(t)
	cid := ctaphid.ChannelID{0, 0, 0, 9}

	req, err := ctaphid.NewMessage(cid, ctaphid.CTAPHID_CBOR, []byte{0x04})
	require.NoError(t, err)
	tr.write(t, req)

	tickN(d, 3)

	msgs := tr.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, ctaphid.CTAPHID_ERROR, msgs[0].Command)
	assert.Equal(t, []byte{byte(ctaphid.ERR_INVALID_CMD)}, msgs[0].Data)
}

func TestDriver_IdleTimeout(t *testing.T) {
	d, tr := newDriver(t, options.WithIdleTicks(4))
	cid := ctaphid.ChannelID{0, 0, 0, 10}

	tr.rx = append(tr.rx, ctaphid.NewInitPacket(cid, ctaphid.CTAPHID_PING, ctaphid.InitPayloadLength+1, nil))

	tickN(d, 2)
	assert.Empty(t, tr.tx)

	tickN(d, 6)

	msgs := tr.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, cid, msgs[0].CID)
	assert.Equal(t, ctaphid.CTAPHID_ERROR, msgs[0].Command)
	assert.Equal(t, []byte{byte(ctaphid.ERR_MSG_TIMEOUT)}, msgs[0].Data)
}

func TestDriver_Backpressure(t *testing.T) {
	d, tr := newDriver(t)
	cid := ctaphid.ChannelID{0, 0, 0, 11}
	tr.blocked = true

	data := make([]byte, 500)
	req, err := ctaphid.NewMessage(cid, ctaphid.CTAPHID_PING, data)
	require.NoError(t, err)
	tr.write(t, req)

	tickN(d, 50)
	assert.Empty(t, tr.tx)
	assert.True(t, d.out.IsFull())

	tr.blocked = false
	tickN(d, 50)

	msgs := tr.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, data, msgs[0].Data)
}

func TestDriver_NotConfigured(t *testing.T) {
	var signals []status.Status
	tr := &fakeTransport{}
	d := New(tr, dispatch.New(), options.WithIndicator(status.IndicatorFunc(func(s status.Status) {
		signals = append(signals, s)
	})))

	req, err := ctaphid.NewMessage(ctaphid.ChannelID{0, 0, 0, 1}, ctaphid.CTAPHID_PING, nil)
	require.NoError(t, err)
	tr.write(t, req)

	tickN(d, 5)
	assert.Empty(t, tr.tx)
	assert.Len(t, tr.rx, 1)

	d.SetState(StateConnected)
	tickN(d, 5)
	assert.Empty(t, tr.tx)

	d.SetState(StateConfigured)
	tickN(d, 5)
	assert.Len(t, tr.messages(t), 1)

	d.SetState(StateDisconnected)
	assert.Equal(t, []status.Status{status.Enumerating, status.Ready, status.NotReady}, signals)
}

func TestDriver_Run(t *testing.T) {
	tr := &fakeTransport{states: make(chan State, 1)}
	d := New(tr, dispatch.New(), options.WithTickInterval(time.Millisecond))

	tr.states <- StateConfigured
	close(tr.states)

	err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDisconnected, d.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New(&fakeTransport{}, dispatch.New()).Run(ctx), context.Canceled)
}
