// Package ble provides the BLE central for talking to an ESP32-DataNode
// peripheral. It handles scanning, connection management, and exposes the
// device's data and control characteristics as a transfer transport.
package ble

import "context"

// ESP32-DataNode GATT UUIDs, matching the firmware defaults.
const (
	ServiceUUID     = "12345678-1234-5678-1234-56789abc0000"
	DataCharUUID    = "12345678-1234-5678-1234-56789abc1001"
	ControlCharUUID = "12345678-1234-5678-1234-56789abc1002"

	// DeviceName is the firmware's advertised local name.
	DeviceName = "ESP32-DataNode"
)

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	// The callback may run on the BLE stack's goroutine and must not block.
	Subscribe(callback func(data []byte)) error
	// Unsubscribe stops notification delivery.
	Unsubscribe() error
}

// Device represents a discovered BLE peripheral. On macOS the Address is a
// CoreBluetooth UUID rather than a MAC address.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers peripherals matching the filter until ctx is cancelled.
	Scan(ctx context.Context, filter ScanFilter) ([]Device, error)
	// Connect establishes a connection to the device with the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
