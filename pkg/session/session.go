// Package session drives a CTAPHID device: it shuttles packets between a
// transport and bounded queues on a fixed tick, and reassembles and
// dispatches requests from the inbound queue in between.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
	"github.com/go-ctap/authenticator/pkg/options"
	"github.com/go-ctap/authenticator/pkg/queue"
	"github.com/go-ctap/authenticator/pkg/status"
)

// Driver is single-threaded: Tick, Process and SetState must be called from
// one goroutine, which Run does.
type Driver struct {
	ID        uuid.UUID
	logger    *slog.Logger
	indicator status.Indicator
	transport Transport
	handler   Handler

	in  *queue.Queue
	out *queue.Queue
	asm ctaphid.Assembler

	// pending is the response being fed into out; inbound processing waits
	// until it has been fully queued.
	pending     *ctaphid.Message
	pendingNext int

	idle      int
	idleTicks int
	interval  time.Duration
	state     State
}

func New(transport Transport, handler Handler, opts ...options.Option) *Driver {
	oo := options.NewOptions(opts...)

	id := uuid.New()
	return &Driver{
		ID:        id,
		logger:    oo.Logger.With("session", id.String()),
		indicator: oo.Indicator,
		transport: transport,
		handler:   handler,
		in:        queue.New(oo.QueueCapacity),
		out:       queue.New(oo.QueueCapacity),
		idleTicks: oo.IdleTicks,
		interval:  oo.TickInterval,
		state:     StateDisconnected,
	}
}

func (d *Driver) State() State {
	return d.state
}

// SetState applies a connection state change. Leaving the configured state
// drops everything queued or half assembled.
func (d *Driver) SetState(s State) {
	if s == d.state {
		return
	}

	d.logger.Info("connection state changed", "from", d.state, "to", s)
	d.state = s

	switch s {
	case StateDisconnected:
		d.reset()
		d.indicator.Indicate(status.NotReady)
	case StateConnected:
		d.reset()
		d.indicator.Indicate(status.Enumerating)
	case StateConfigured:
		d.indicator.Indicate(status.Ready)
	}
}

func (d *Driver) reset() {
	d.in.Reset()
	d.out.Reset()
	d.asm.Reset()
	d.pending = nil
	d.pendingNext = 0
	d.idle = 0
}

// Tick moves at most one packet from the transport into the inbound queue
// and at most one packet from the outbound queue to the transport, then
// processes whatever the inbound queue holds. It does nothing unless the
// connection is configured.
func (d *Driver) Tick() {
	if d.state != StateConfigured {
		return
	}

	d.receive()
	d.send()
	d.Process()
	d.checkIdle()
}

func (d *Driver) receive() {
	if !d.transport.DataAvailable() {
		return
	}

	if d.in.IsFull() {
		d.logger.Debug("inbound queue full")
		return
	}

	if p, ok := d.transport.TryReceive(); ok {
		d.in.Push(p)
	}
}

func (d *Driver) send() {
	d.fillOutbound()

	p, ok := d.out.Peek().Get()
	if !ok || !d.transport.ReadyToSend() {
		return
	}

	if d.transport.TrySend(*p) {
		d.out.Pop()
	}
}

// Process reassembles and dispatches requests from the inbound queue until it
// is empty or a response is waiting for room in the outbound queue.
// Continuation packets that do not belong to a message are discarded.
func (d *Driver) Process() {
	if d.state != StateConfigured {
		return
	}

	for d.pending == nil {
		p, ok := d.in.Peek().Get()
		if !ok {
			break
		}
		d.idle = 0

		if !d.asm.InProgress() && p.IsContinuation() {
			d.logger.Debug("discarding continuation packet without message", "cid", p.CID())
			d.in.Pop()
			continue
		}

		msg, err := d.asm.Feed(p)
		d.in.Pop()

		if err != nil {
			var perr *ctaphid.ProtocolError
			if errors.As(err, &perr) {
				d.logger.Warn("reassembly failed", "cid", perr.CID, "error", perr.Code)
				d.indicator.Indicate(status.Error)
				d.respond(perr.Message())
			}
			continue
		}

		if msg != nil {
			d.respond(d.handler.Dispatch(msg))
		}
	}

	d.fillOutbound()
}

func (d *Driver) checkIdle() {
	if !d.asm.InProgress() || !d.in.IsEmpty() || d.pending != nil {
		d.idle = 0
		return
	}

	d.idle++
	if d.idleTicks <= 0 || d.idle < d.idleTicks {
		return
	}

	cid := d.asm.CID()
	d.logger.Warn("reassembly timed out", "cid", cid, "ticks", d.idle)
	d.asm.Reset()
	d.idle = 0
	d.indicator.Indicate(status.Error)
	d.respond(ctaphid.NewErrorMessage(cid, ctaphid.ERR_MSG_TIMEOUT))
}

func (d *Driver) respond(msg *ctaphid.Message) {
	if msg == nil {
		return
	}

	if len(msg.Data) > ctaphid.MaxPayloadLength {
		d.logger.Error("response too large", "cid", msg.CID, "command", msg.Command, "length", len(msg.Data))
		msg = ctaphid.NewErrorMessage(msg.CID, ctaphid.ERR_OTHER)
	}

	d.pending = msg
	d.pendingNext = 0
	d.fillOutbound()
}

func (d *Driver) fillOutbound() {
	for d.pending != nil && !d.out.IsFull() {
		p, ok := d.pending.Packet(d.pendingNext)
		if ok {
			d.out.Push(p)
			d.pendingNext++
		}

		if !ok || d.pendingNext == d.pending.PacketCount() {
			d.pending = nil
			d.pendingNext = 0
		}
	}
}

// Run ticks the driver every tick interval until ctx is done. State changes
// reported by a transport implementing StateNotifier are applied between
// ticks.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var states <-chan State
	if n, ok := d.transport.(StateNotifier); ok {
		states = n.States()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-states:
			if !ok {
				d.SetState(StateDisconnected)
				return nil
			}
			d.SetState(s)
		case <-ticker.C:
			d.Tick()
		}
	}
}
