package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tfountain/healthnode/internal/ble/protocol"
)

// Transport is the connected, notification-capable channel a session
// drives. Implementations subscribe the handler to the device's data
// characteristic and write commands to its control characteristic.
// Connection establishment and characteristic discovery happen elsewhere.
type Transport interface {
	Subscribe(handler func(data []byte)) error
	Unsubscribe() error
	WriteCommand(data []byte) error
}

// Options configures a transfer session.
type Options struct {
	BaseTimeout time.Duration // deadline base (default 5s)
	PerRecord   time.Duration // deadline allowance per expected record (default 150ms)
	QueueSize   int           // pump queue capacity (default 1024)
	SyncClock   bool          // write TIME:<epoch> before requesting data
	EraseAfter  bool          // write ERASE after a finished transfer
}

// DefaultOptions returns the session defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		BaseTimeout: DefaultBaseTimeout,
		PerRecord:   DefaultPerRecord,
		QueueSize:   DefaultQueueSize,
		SyncClock:   true,
	}
}

// Result is the outcome of one session. Status is never conflated with
// success: a timed-out session carries whatever records arrived, an
// aborted one carries none.
type Result struct {
	Status  Status
	Records []protocol.Record
	LastAck string
	Dropped uint64 // packets lost to pump queue overflow
}

// Session drives one end-to-end transfer attempt over a connected
// transport. Sessions are single-use; each attempt gets a fresh one.
type Session struct {
	transport Transport
	opts      Options

	discOnce     sync.Once
	disconnected chan struct{}
}

// NewSession creates a session for the given transport.
func NewSession(t Transport, opts Options) *Session {
	if opts.BaseTimeout <= 0 {
		opts.BaseTimeout = DefaultBaseTimeout
	}
	if opts.PerRecord <= 0 {
		opts.PerRecord = DefaultPerRecord
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Session{
		transport:    t,
		opts:         opts,
		disconnected: make(chan struct{}),
	}
}

// NotifyDisconnect records that the underlying connection dropped. Safe to
// call from any goroutine; only the first call has effect. Register it as
// the connection's disconnect callback before running the session.
func (s *Session) NotifyDisconnect() {
	s.discOnce.Do(func() { close(s.disconnected) })
}

// Run performs one transfer: subscribe, optional clock sync, request data,
// wait for the first of {finished, disconnected, deadline}, unsubscribe,
// and return the accumulated records. Subscribe and command-write failures
// are fatal for the session; nothing is retried here.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	st := NewState()
	pump := NewPump(s.opts.QueueSize)

	// Subscribe before any command so the start announcement is not lost.
	if err := s.transport.Subscribe(pump.Enqueue); err != nil {
		return nil, fmt.Errorf("transfer: subscribe: %w", err)
	}
	defer func() {
		if err := s.transport.Unsubscribe(); err != nil {
			slog.Warn("[SESSION] unsubscribe failed", "error", err)
		}
	}()

	st.Begin()
	pumpCtx, cancelPump := context.WithCancel(context.Background())
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		pump.Run(pumpCtx, st)
	}()
	// stopPump halts the consumer and waits for it, after which the
	// session is the sole owner of st.
	stopPump := func() {
		cancelPump()
		<-pumpDone
	}

	if s.opts.SyncClock {
		if err := s.transport.WriteCommand(protocol.TimeSyncCommand(time.Now())); err != nil {
			stopPump()
			return nil, fmt.Errorf("transfer: time sync: %w", err)
		}
		slog.Info("[SESSION] device clock synced")
	}
	if err := s.transport.WriteCommand([]byte(protocol.CmdSend)); err != nil {
		stopPump()
		return nil, fmt.Errorf("transfer: request transfer: %w", err)
	}
	slog.Info("[SESSION] transfer requested")

	// The initial deadline assumes an unknown count; each start
	// announcement rescales it.
	timer := time.NewTimer(Deadline(s.opts.BaseTimeout, s.opts.PerRecord, 0))
	defer timer.Stop()

wait:
	for {
		select {
		case <-st.Done():
			stopPump()
			break wait
		case expected := <-pump.Announcements():
			d := Deadline(s.opts.BaseTimeout, s.opts.PerRecord, expected)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d)
			slog.Debug("[SESSION] deadline rescaled", "expected", expected, "deadline", d)
		case <-s.disconnected:
			stopPump()
			st.Abort()
			slog.Warn("[SESSION] connection lost mid-transfer")
			break wait
		case <-timer.C:
			stopPump()
			st.Expire()
			slog.Warn("[SESSION] transfer deadline elapsed", "received", len(st.Records()))
			break wait
		case <-ctx.Done():
			stopPump()
			st.Abort()
			return nil, fmt.Errorf("transfer: %w", ctx.Err())
		}
	}

	res := &Result{
		Status:  st.Status(),
		Records: st.Records(),
		LastAck: st.LastAck(),
		Dropped: pump.Drops(),
	}
	if expected, ok := st.Expected(); ok && res.Status == StatusTimedOut {
		slog.Warn("[SESSION] returning partial result", "expected", expected, "received", len(res.Records))
	}

	if s.opts.EraseAfter && res.Status == StatusFinished {
		if err := s.transport.WriteCommand([]byte(protocol.CmdErase)); err != nil {
			return res, fmt.Errorf("transfer: erase: %w", err)
		}
		slog.Info("[SESSION] device storage erased")
	}

	return res, nil
}
