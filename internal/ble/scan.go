package ble

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ScanFilter selects which advertisements count as a match. A device
// matches when it advertises ServiceUUID or its local name contains any of
// the NameContains substrings (case-insensitive). An empty filter matches
// everything.
type ScanFilter struct {
	ServiceUUID  string
	NameContains []string
}

// DefaultScanFilter matches the ESP32-DataNode firmware by service UUID or
// by the name fragments its boards have shipped with.
func DefaultScanFilter() ScanFilter {
	return ScanFilter{
		ServiceUUID:  ServiceUUID,
		NameContains: []string{"esp32", "datanode"},
	}
}

// MatchName reports whether a local name satisfies the name part of the
// filter.
func (f ScanFilter) MatchName(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, fragment := range f.NameContains {
		if strings.Contains(lower, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// FindDevice scans for up to timeout and returns the matching device with
// the strongest signal. The scan owns its result accumulator and returns
// it as a value; nothing outlives the call.
func FindDevice(ctx context.Context, adapter Adapter, filter ScanFilter, timeout time.Duration) (Device, error) {
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	devices, err := adapter.Scan(scanCtx, filter)
	if err != nil {
		return Device{}, fmt.Errorf("ble: scan: %w", err)
	}
	if len(devices) == 0 {
		return Device{}, fmt.Errorf("ble: no device matching %q found; ensure it is powered on and advertising", DeviceName)
	}

	best := devices[0]
	for _, d := range devices[1:] {
		if d.RSSI > best.RSSI {
			best = d
		}
	}
	return best, nil
}
