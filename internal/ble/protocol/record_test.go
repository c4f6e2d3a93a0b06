package protocol

import (
	"bytes"
	"testing"
	"time"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	records := []Record{
		{},
		{HeartRateX10: 700, TempCx100: -50, Steps: 1200, Timestamp: 1000},
		{HeartRateX10: 65535, TempCx100: 32767, Steps: 65535, Timestamp: 4294967295},
		{HeartRateX10: 0, TempCx100: -32768, Steps: 0, Timestamp: 0},
		{HeartRateX10: 721, TempCx100: 3689, Steps: 843, Timestamp: 1735689600},
	}
	for _, want := range records {
		got, err := Unpack(Pack(want))
		if err != nil {
			t.Fatalf("Unpack(Pack(%+v)) error = %v", want, err)
		}
		if got != want {
			t.Errorf("Unpack(Pack(%+v)) = %+v", want, got)
		}
	}
}

func TestPackLayout(t *testing.T) {
	r := Record{HeartRateX10: 0x0102, TempCx100: 0x0304, Steps: 0x0506, Timestamp: 0x0708090a}
	want := []byte{
		0x02, 0x01, // hr, LE
		0x04, 0x03, // temp, LE
		0x06, 0x05, // steps, LE
		0x00, 0x00, // reserved
		0x0a, 0x09, 0x08, 0x07, // timestamp, LE
	}
	if got := Pack(r); !bytes.Equal(got, want) {
		t.Errorf("Pack() = %x, want %x", got, want)
	}
}

func TestUnpackWrongLength(t *testing.T) {
	for _, n := range []int{0, 10, 11, 13, 24} {
		if _, err := Unpack(make([]byte, n)); err == nil {
			t.Errorf("Unpack(%d bytes) error = nil, want length error", n)
		}
	}
}

func TestRecordAccessors(t *testing.T) {
	r := Record{HeartRateX10: 721, TempCx100: -250, Steps: 90, Timestamp: 1000}
	if got := r.HeartRate(); got != 72.1 {
		t.Errorf("HeartRate() = %v, want 72.1", got)
	}
	if got := r.Temperature(); got != -2.5 {
		t.Errorf("Temperature() = %v, want -2.5", got)
	}
	if got := r.Time(); !got.Equal(time.Unix(1000, 0)) {
		t.Errorf("Time() = %v, want %v", got, time.Unix(1000, 0))
	}
}

func TestTimeSyncCommand(t *testing.T) {
	cmd := TimeSyncCommand(time.Unix(1735689600, 0))
	if string(cmd) != "TIME:1735689600" {
		t.Errorf("TimeSyncCommand() = %q, want %q", cmd, "TIME:1735689600")
	}
}
