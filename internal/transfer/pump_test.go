package transfer

import (
	"context"
	"testing"
	"time"
)

func TestPumpDropsNewestOnOverflow(t *testing.T) {
	pump := NewPump(1024)
	// 1025 packets with no consumer draining in between.
	for i := range 1025 {
		pump.Enqueue(dataPacket(uint32(i)))
	}
	if pump.Drops() != 1 {
		t.Fatalf("Drops() = %d, want exactly 1", pump.Drops())
	}

	st := NewState()
	st.Begin()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pump.Run(ctx, st)
	}()

	// Wait for the queue to drain, then stop the consumer before
	// inspecting the state.
	deadline := time.After(5 * time.Second)
	for len(pump.queue) > 0 {
		select {
		case <-deadline:
			t.Fatal("queue did not drain")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	records := st.Records()
	if len(records) != 1024 {
		t.Fatalf("consumed %d records, want 1024", len(records))
	}
	// FIFO order: timestamps 0..1023, the 1025th packet was the drop.
	for i, rec := range records {
		if rec.Timestamp != uint32(i) {
			t.Fatalf("records[%d].Timestamp = %d, want %d (out of order)", i, rec.Timestamp, i)
		}
	}
}

func TestPumpIgnoresEmptyPackets(t *testing.T) {
	pump := NewPump(4)
	pump.Enqueue(nil)
	pump.Enqueue([]byte{})
	if len(pump.queue) != 0 {
		t.Errorf("queue length = %d after empty enqueues, want 0", len(pump.queue))
	}
}

func TestPumpCopiesPacketBytes(t *testing.T) {
	pump := NewPump(4)
	raw := []byte("Atext")
	pump.Enqueue(raw)
	raw[1] = 'X' // adapter reusing its notification buffer

	st := NewState()
	st.Begin()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pump.Run(ctx, st)
	}()
	deadline := time.After(time.Second)
	for len(pump.queue) > 0 {
		select {
		case <-deadline:
			t.Fatal("queue did not drain")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	if st.LastAck() != "text" {
		t.Errorf("LastAck() = %q, want %q (packet must be copied on enqueue)", st.LastAck(), "text")
	}
}

func TestPumpSurvivesBadFrames(t *testing.T) {
	pump := NewPump(8)
	pump.Enqueue([]byte{'Z', 0xff})     // unknown marker
	pump.Enqueue([]byte("Dnot-base64")) // malformed data
	pump.Enqueue(dataPacket(1000))      // good record after the bad ones

	st := NewState()
	st.Begin()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pump.Run(ctx, st)
	}()
	deadline := time.After(time.Second)
	for len(pump.queue) > 0 {
		select {
		case <-deadline:
			t.Fatal("queue did not drain")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	if len(st.Records()) != 1 {
		t.Errorf("got %d records, want 1; bad frames must not stop consumption", len(st.Records()))
	}
}
