package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
)

func packet(n byte) ctaphid.Packet {
	return ctaphid.NewContPacket(ctaphid.ChannelID{0, 0, 0, n}, n, []byte{n})
}

func TestQueue_BoundedDrop(t *testing.T) {
	q := New(5)
	require.True(t, q.IsEmpty())

	for i := byte(0); i < 8; i++ {
		q.Push(packet(i))
	}

	assert.True(t, q.IsFull())
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		p, ok := q.PeekN(i).Get()
		require.True(t, ok)
		assert.Equal(t, packet(byte(i)), *p)
	}
	assert.True(t, q.PeekN(5).IsAbsent())

	for i := 0; i < 5; i++ {
		p, ok := q.Peek().Get()
		require.True(t, ok)
		assert.Equal(t, packet(byte(i)), *p)
		q.Pop()
	}
	assert.True(t, q.IsEmpty())
	assert.True(t, q.Peek().IsAbsent())

	// no-op on empty
	q.Pop()
	assert.Equal(t, 0, q.Len())
}

func TestQueue_WrapAround(t *testing.T) {
	q := New(3)

	next := byte(0)
	want := byte(0)
	for round := 0; round < 10; round++ {
		for !q.IsFull() {
			q.Push(packet(next))
			next++
		}

		q.PopN(2)
		want += 2

		p, ok := q.Peek().Get()
		require.True(t, ok)
		assert.Equal(t, packet(want), *p)
	}
}

func TestQueue_PopN(t *testing.T) {
	q := New(5)
	q.Push(packet(1))
	q.Push(packet(2))

	q.PopN(10)
	assert.True(t, q.IsEmpty())

	q.Push(packet(3))
	q.Reset()
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 5, q.Cap())
}

func TestQueue_Reassemble(t *testing.T) {
	q := New(5)
	cid := ctaphid.ChannelID{0, 0, 0, 1}

	m, err := ctaphid.NewMessage(cid, ctaphid.CTAPHID_PING, make([]byte, ctaphid.InitPayloadLength+1))
	require.NoError(t, err)

	p0, _ := m.Packet(0)
	q.Push(p0)

	_, n, err := ctaphid.Reassemble(q)
	assert.ErrorIs(t, err, ctaphid.ErrIncomplete)
	assert.Equal(t, 0, n)

	p1, _ := m.Packet(1)
	q.Push(p1)

	got, n, err := ctaphid.Reassemble(q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, m.Data, got.Data)

	q.PopN(n)
	assert.True(t, q.IsEmpty())
}
