package transfer

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/tfountain/healthnode/internal/ble/protocol"
)

// DefaultQueueSize bounds the pump queue. BLE notifications arrive in
// bursts of small packets; 1024 entries absorbs a full transfer burst.
const DefaultQueueSize = 1024

// Pump moves raw notification packets from the transport callback into the
// state machine. Enqueue never blocks the delivery path: when the queue is
// full the newest packet is dropped and counted. Losses are possible by
// design; the protocol is best-effort, not a loss-free pipe.
type Pump struct {
	queue    chan []byte
	announce chan uint32
	drops    atomic.Uint64
}

// NewPump creates a pump with the given queue capacity (DefaultQueueSize
// when size is not positive).
func NewPump(size int) *Pump {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Pump{
		queue:    make(chan []byte, size),
		announce: make(chan uint32, 1),
	}
}

// Enqueue accepts one packet from the transport callback. Safe to call
// from any goroutine; empty packets are ignored. The bytes are copied
// because the adapter may reuse the notification buffer.
func (p *Pump) Enqueue(raw []byte) {
	if len(raw) == 0 {
		return
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	select {
	case p.queue <- cp:
	default:
		n := p.drops.Add(1)
		slog.Warn("[PUMP] queue full, dropping packet", "dropped", n)
	}
}

// Run dequeues packets in FIFO order, decodes them, and feeds the state
// machine until ctx is cancelled. It owns st for the duration of the call.
// A frame the decoder or state machine rejects never stops consumption.
func (p *Pump) Run(ctx context.Context, st *State) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-p.queue:
			frame, ok := protocol.Decode(raw)
			if !ok {
				continue
			}
			if frame.Type == protocol.FrameStart {
				// Latest announcement wins; the session uses it to
				// rescale its deadline.
				select {
				case <-p.announce:
				default:
				}
				p.announce <- frame.Expected
			}
			st.HandleFrame(frame)
		}
	}
}

// Announcements delivers the expected count from each start frame.
func (p *Pump) Announcements() <-chan uint32 { return p.announce }

// Drops returns the number of packets dropped on queue overflow.
func (p *Pump) Drops() uint64 { return p.drops.Load() }
