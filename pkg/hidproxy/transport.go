package hidproxy

import (
	"io"
	"sync"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
	"github.com/go-ctap/authenticator/pkg/session"
)

// StreamTransport carries HID reports over a byte stream. The host writes
// report ID 0 followed by the report (65 bytes); the device answers with
// bare 64-byte reports. It implements session.Transport and
// session.StateNotifier.
type StreamTransport struct {
	conn   io.ReadWriteCloser
	rx     chan ctaphid.Packet
	tx     chan ctaphid.Packet
	states chan session.State
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	err    error
}

// NewStreamTransport starts reading and writing reports on conn. depth bounds
// the packets buffered in each direction; a full receive buffer stops reading
// from conn, so the host sees its writes stall.
func NewStreamTransport(conn io.ReadWriteCloser, depth int) *StreamTransport {
	if depth < 1 {
		depth = 1
	}

	t := &StreamTransport{
		conn:   conn,
		rx:     make(chan ctaphid.Packet, depth),
		tx:     make(chan ctaphid.Packet, depth),
		states: make(chan session.State, 2),
		done:   make(chan struct{}),
	}

	// the stream is usable as soon as it exists
	t.states <- session.StateConnected
	t.states <- session.StateConfigured

	t.wg.Add(2)
	go t.readLoop()
	go t.writeLoop()

	return t
}

func (t *StreamTransport) readLoop() {
	defer t.wg.Done()
	defer close(t.states)

	for {
		var report [ctaphid.ReportSize + 1]byte
		if _, err := io.ReadFull(t.conn, report[:]); err != nil {
			t.fail(err)
			return
		}

		var p ctaphid.Packet
		copy(p[:], report[1:])

		select {
		case t.rx <- p:
		case <-t.done:
			return
		}
	}
}

func (t *StreamTransport) writeLoop() {
	defer t.wg.Done()

	for {
		select {
		case p := <-t.tx:
			if _, err := t.conn.Write(p[:]); err != nil {
				t.fail(err)
				return
			}
		case <-t.done:
			return
		}
	}
}

func (t *StreamTransport) fail(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
		_ = t.conn.Close()
	})
}

func (t *StreamTransport) DataAvailable() bool {
	return len(t.rx) > 0
}

func (t *StreamTransport) ReadyToSend() bool {
	select {
	case <-t.done:
		return false
	default:
		return len(t.tx) < cap(t.tx)
	}
}

func (t *StreamTransport) TryReceive() (ctaphid.Packet, bool) {
	select {
	case p := <-t.rx:
		return p, true
	default:
		return ctaphid.Packet{}, false
	}
}

func (t *StreamTransport) TrySend(p ctaphid.Packet) bool {
	select {
	case <-t.done:
		return false
	default:
	}

	select {
	case t.tx <- p:
		return true
	default:
		return false
	}
}

func (t *StreamTransport) States() <-chan session.State {
	return t.states
}

// Close stops both loops and closes the underlying stream.
func (t *StreamTransport) Close() error {
	t.fail(ErrTransportClosed)
	t.wg.Wait()
	return nil
}

// Err is the error that ended the stream, io.EOF on a clean disconnect.
func (t *StreamTransport) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
