package ble

import (
	"context"
	"testing"
	"time"
)

func TestScanFilterMatchName(t *testing.T) {
	filter := DefaultScanFilter()
	for name, want := range map[string]bool{
		"ESP32-DataNode": true,
		"esp32-datanode": true,
		"MyDataNode":     true,
		"FitnessTracker": false,
		"":               false,
	} {
		if got := filter.MatchName(name); got != want {
			t.Errorf("MatchName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFindDevicePicksStrongestSignal(t *testing.T) {
	adapter := newMockAdapter([]Device{
		{Name: "ESP32-DataNode", Address: "AA:AA", RSSI: -80},
		{Name: "ESP32-DataNode", Address: "BB:BB", RSSI: -42},
		{Name: "kettle", Address: "CC:CC", RSSI: -10},
	})
	dev, err := FindDevice(context.Background(), adapter, DefaultScanFilter(), time.Second)
	if err != nil {
		t.Fatalf("FindDevice() error = %v", err)
	}
	if dev.Address != "BB:BB" {
		t.Errorf("FindDevice() = %q, want the -42 dBm match BB:BB", dev.Address)
	}
}

func TestFindDeviceNoMatch(t *testing.T) {
	adapter := newMockAdapter([]Device{{Name: "kettle", Address: "CC:CC"}})
	if _, err := FindDevice(context.Background(), adapter, DefaultScanFilter(), time.Second); err == nil {
		t.Fatal("FindDevice() error = nil, want not-found error")
	}
}
