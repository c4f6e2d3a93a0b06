package ble

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// NativeAdapter wraps tinygo-org/bluetooth over the platform BLE stack
// (BlueZ on Linux, CoreBluetooth on macOS, WinRT on Windows). On macOS,
// device addresses are CoreBluetooth UUIDs rather than MAC addresses; the
// Address fields carry whichever the platform uses.
type NativeAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*nativeConnection // keyed by device address
}

// NewNativeAdapter creates a BLE adapter backed by the default platform stack.
func NewNativeAdapter() *NativeAdapter {
	return &NativeAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*nativeConnection),
	}
}

func (a *NativeAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// Adapter-level connect handler: fired with connected=false when a
	// peripheral drops, which is how we learn about mid-transfer
	// disconnects.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		a.mu.Unlock()
		if ok && conn.disconnectCb != nil {
			conn.disconnectCb()
		}
	})

	return nil
}

func (a *NativeAdapter) Scan(ctx context.Context, filter ScanFilter) ([]Device, error) {
	var svcUUID bluetooth.UUID
	matchService := filter.ServiceUUID != ""
	if matchService {
		parsed, err := bluetooth.ParseUUID(filter.ServiceUUID)
		if err != nil {
			return nil, fmt.Errorf("ble: parse service UUID: %w", err)
		}
		svcUUID = parsed
	}

	var mu sync.Mutex
	var devices []Device
	seen := make(map[string]bool)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.adapter.StopScan()
		case <-done:
		}
	}()

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		matched := filter.MatchName(result.LocalName())
		if !matched && matchService && result.HasServiceUUID(svcUUID) {
			matched = true
		}
		if !matched && !matchService && len(filter.NameContains) == 0 {
			matched = true
		}
		if !matched {
			return
		}
		addr := result.Address.String()
		mu.Lock()
		defer mu.Unlock()
		if seen[addr] {
			return
		}
		seen[addr] = true
		devices = append(devices, Device{
			Name:    result.LocalName(),
			Address: addr,
			RSSI:    int(result.RSSI),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return devices, nil
}

func (a *NativeAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(address)

	// The underlying Connect blocks with its own timeout; wrap it so our
	// ctx cancellation returns promptly even when the stack keeps trying.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ble: connect to %s: %w", address, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", address, result.err)
		}
		conn := &nativeConnection{device: &result.device}

		// Track the connection so the adapter-level disconnect handler
		// can find it and fire its OnDisconnect callback.
		a.mu.Lock()
		a.connections[address] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

// Compile-time check that NativeAdapter implements Adapter.
var _ Adapter = (*NativeAdapter)(nil)

type nativeConnection struct {
	device       *bluetooth.Device
	disconnectCb func()
}

func (c *nativeConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	svcUUID, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, err
	}
	charUUIDParsed, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, err
	}

	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("ble: service %s not found", serviceUUID)
	}

	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{charUUIDParsed})
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("ble: characteristic %s not found", charUUID)
	}

	return &nativeCharacteristic{char: &chars[0]}, nil
}

func (c *nativeConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *nativeConnection) OnDisconnect(cb func()) {
	c.disconnectCb = cb
}

type nativeCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *nativeCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}

func (c *nativeCharacteristic) Subscribe(cb func([]byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		cb(buf)
	})
}

func (c *nativeCharacteristic) Unsubscribe() error {
	return c.char.EnableNotifications(nil)
}
