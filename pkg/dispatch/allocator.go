package dispatch

import "github.com/go-ctap/authenticator/pkg/ctaphid"

// Allocator hands out channel IDs for CTAPHID_INIT.
type Allocator interface {
	Allocate() ctaphid.ChannelID
}

// Counter allocates channel IDs from a monotonically increasing counter,
// starting at 1 and never yielding the reserved 0 or broadcast values.
// IDs are not persisted and not reused within a process.
type Counter struct {
	next uint32
}

func NewCounter() *Counter {
	return &Counter{next: 1}
}

func (c *Counter) Allocate() ctaphid.ChannelID {
	for c.next == 0 || c.next == 0xffffffff {
		c.next++
	}

	cid := ctaphid.ChannelIDFromUint32(c.next)
	c.next++

	return cid
}
