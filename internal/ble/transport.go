package ble

import (
	"fmt"

	"github.com/tfountain/healthnode/internal/transfer"
)

// Transport adapts a connected peripheral's data and control
// characteristics to the transfer engine's transport boundary.
type Transport struct {
	data    Characteristic
	control Characteristic
}

// NewTransport discovers the data and control characteristics on an
// established connection.
func NewTransport(conn Connection) (*Transport, error) {
	data, err := conn.DiscoverCharacteristic(ServiceUUID, DataCharUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: discover data characteristic: %w", err)
	}
	control, err := conn.DiscoverCharacteristic(ServiceUUID, ControlCharUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: discover control characteristic: %w", err)
	}
	return &Transport{data: data, control: control}, nil
}

// Subscribe registers the handler for data-characteristic notifications.
func (t *Transport) Subscribe(handler func(data []byte)) error {
	return t.data.Subscribe(handler)
}

// Unsubscribe stops notification delivery.
func (t *Transport) Unsubscribe() error {
	return t.data.Unsubscribe()
}

// WriteCommand writes one control command to the device.
func (t *Transport) WriteCommand(data []byte) error {
	if err := t.control.Write(data); err != nil {
		return fmt.Errorf("ble: write command %q: %w", data, err)
	}
	return nil
}

// Compile-time check that Transport satisfies the transfer boundary.
var _ transfer.Transport = (*Transport)(nil)
