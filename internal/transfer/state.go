// Package transfer implements the record download engine: a state machine
// consuming decoded frames, a notification pump feeding it from the BLE
// callback, and a session orchestrator driving one end-to-end transfer.
package transfer

import (
	"log/slog"
	"time"

	"github.com/tfountain/healthnode/internal/ble/protocol"
)

// Status is the lifecycle of one transfer attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusReceiving
	StatusFinished
	StatusTimedOut
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusReceiving:
		return "receiving"
	case StatusFinished:
		return "finished"
	case StatusTimedOut:
		return "timed out"
	case StatusAborted:
		return "aborted"
	default:
		return "invalid"
	}
}

// Adaptive deadline defaults. The floor keeps a device that announces zero
// (or nothing at all) from shrinking the wait below a useful minimum.
const (
	DefaultBaseTimeout = 5 * time.Second
	DefaultPerRecord   = 150 * time.Millisecond
	deadlineFloor      = 20
)

// Deadline returns the wait budget for a transfer expecting the given
// record count: base plus a per-record allowance, with expected clamped up
// to a 20-record floor.
func Deadline(base, perRecord time.Duration, expected uint32) time.Duration {
	if base <= 0 {
		base = DefaultBaseTimeout
	}
	if perRecord <= 0 {
		perRecord = DefaultPerRecord
	}
	n := expected
	if n < deadlineFloor {
		n = deadlineFloor
	}
	return base + time.Duration(n)*perRecord
}

// State tracks a single transfer attempt. It is confined to the pump's
// consumer goroutine while the pump runs; the session only touches it after
// the pump has stopped, so no locking is needed.
type State struct {
	status       Status
	expected     uint32
	haveExpected bool
	records      []protocol.Record
	lastAck      string
	done         chan struct{}
}

// NewState returns a fresh State. Each transfer attempt gets its own.
func NewState() *State {
	return &State{status: StatusIdle, done: make(chan struct{})}
}

// Begin moves the state machine out of idle; frames are ignored before it.
func (s *State) Begin() {
	if s.status == StatusIdle {
		s.status = StatusReceiving
	}
}

// HandleFrame applies one decoded frame. Frames arriving before Begin or
// after a terminal status are ignored. A malformed frame never stops the
// transfer; it is logged and dropped.
func (s *State) HandleFrame(f protocol.Frame) {
	if s.status != StatusReceiving {
		return
	}

	switch f.Type {
	case protocol.FrameStart:
		if f.Malformed {
			slog.Warn("[TRANSFER] unreadable start announcement, count unknown")
		}
		if len(s.records) > 0 {
			slog.Warn("[TRANSFER] mid-transfer start announcement, resetting", "discarded", len(s.records))
		}
		// A fresh announcement, not cumulative: partial progress is discarded.
		s.records = s.records[:0]
		s.expected = f.Expected
		s.haveExpected = true
		slog.Info("[TRANSFER] device announced records", "expected", s.expected)

	case protocol.FrameData:
		if f.Malformed {
			slog.Warn("[TRANSFER] dropping malformed record frame")
			return
		}
		rec, err := protocol.Unpack(f.Payload)
		if err != nil {
			slog.Warn("[TRANSFER] dropping undecodable record", "error", err)
			return
		}
		s.records = append(s.records, rec)
		slog.Debug("[TRANSFER] record received", "count", len(s.records), "expected", s.expected)
		if s.haveExpected && s.expected > 0 && uint32(len(s.records)) >= s.expected {
			s.finish()
		}

	case protocol.FrameEnd:
		if !s.haveExpected || uint32(len(s.records)) != s.expected {
			slog.Warn("[TRANSFER] record count mismatch at end of transfer",
				"expected", s.expected, "received", len(s.records))
		}
		s.finish()

	case protocol.FrameAck:
		s.lastAck = f.Ack
		slog.Debug("[TRANSFER] device ack", "text", f.Ack)

	default:
		slog.Warn("[TRANSFER] ignoring unknown marker", "len", len(f.Payload))
	}
}

func (s *State) finish() {
	s.status = StatusFinished
	close(s.done)
}

// Done is closed once when the transfer completes. Timeout and disconnect
// are signalled by the session, not through this channel.
func (s *State) Done() <-chan struct{} { return s.done }

// Abort records a mid-transfer disconnect. Buffered records are discarded;
// an aborted transfer reports zero records. No-op once finished.
func (s *State) Abort() {
	if s.status != StatusReceiving {
		return
	}
	s.status = StatusAborted
	s.records = nil
}

// Expire records a deadline expiry. Partially received records are kept as
// a best-effort result. No-op once finished.
func (s *State) Expire() {
	if s.status != StatusReceiving {
		return
	}
	s.status = StatusTimedOut
}

// Status returns the current lifecycle status.
func (s *State) Status() Status { return s.status }

// Records returns the records received so far, in arrival order.
func (s *State) Records() []protocol.Record { return s.records }

// Expected returns the announced record count and whether one was seen.
func (s *State) Expected() (uint32, bool) { return s.expected, s.haveExpected }

// LastAck returns the most recent diagnostic ack text from the device.
func (s *State) LastAck() string { return s.lastAck }
