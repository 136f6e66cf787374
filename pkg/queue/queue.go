// Package queue implements the fixed-capacity packet FIFO placed between a
// transport and the message codec.
package queue

import (
	"github.com/samber/mo"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
)

// Queue is a ring buffer of packets. Storage is allocated once by New; Push
// drops the packet when the queue is full rather than overwriting older ones.
// A Queue is not safe for concurrent use.
type Queue struct {
	head    int
	len     int
	packets []ctaphid.Packet
}

func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}

	return &Queue{
		packets: make([]ctaphid.Packet, capacity),
	}
}

func (q *Queue) Len() int {
	return q.len
}

func (q *Queue) Cap() int {
	return len(q.packets)
}

func (q *Queue) IsEmpty() bool {
	return q.len == 0
}

func (q *Queue) IsFull() bool {
	return q.len == len(q.packets)
}

// Push appends p at the tail. A full queue silently discards p.
func (q *Queue) Push(p ctaphid.Packet) {
	if q.IsFull() {
		return
	}

	q.packets[(q.head+q.len)%len(q.packets)] = p
	q.len++
}

// Pop removes the oldest packet, if any.
func (q *Queue) Pop() {
	if q.len == 0 {
		return
	}

	q.head = (q.head + 1) % len(q.packets)
	q.len--
}

// PopN removes up to n packets.
func (q *Queue) PopN(n int) {
	for ; q.len > 0 && n > 0; n-- {
		q.Pop()
	}
}

// Peek returns the oldest packet without removing it.
func (q *Queue) Peek() mo.Option[*ctaphid.Packet] {
	return q.PeekN(0)
}

// PeekN returns the packet n positions behind the head. The pointer refers to
// queue storage and is only valid until the slot is popped and reused.
func (q *Queue) PeekN(n int) mo.Option[*ctaphid.Packet] {
	if n < 0 || n >= q.len {
		return mo.None[*ctaphid.Packet]()
	}

	return mo.Some(&q.packets[(q.head+n)%len(q.packets)])
}

// Reset empties the queue.
func (q *Queue) Reset() {
	q.head = 0
	q.len = 0
}
