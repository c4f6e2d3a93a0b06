package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// RecordSize is the wire size of one consolidated sensor record. The
// firmware packs {u16 hr×10, i16 temp×100, u16 steps, u16 reserved,
// u32 epoch seconds}, all little-endian.
const RecordSize = 12

// Record is one fixed-width health sample as stored on the device.
type Record struct {
	HeartRateX10 uint16 // average heart rate, beats per minute ×10
	TempCx100    int16  // average temperature, °C ×100
	Steps        uint16
	Timestamp    uint32 // unix epoch seconds
}

// HeartRate returns the average heart rate in bpm.
func (r Record) HeartRate() float64 { return float64(r.HeartRateX10) / 10 }

// Temperature returns the average temperature in °C.
func (r Record) Temperature() float64 { return float64(r.TempCx100) / 100 }

// Time returns the record timestamp in the local time zone.
func (r Record) Time() time.Time { return time.Unix(int64(r.Timestamp), 0) }

// Pack encodes a record into its 12-byte wire form.
func Pack(r Record) []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint16(buf[0:2], r.HeartRateX10)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(r.TempCx100))
	binary.LittleEndian.PutUint16(buf[4:6], r.Steps)
	// buf[6:8] is the firmware's struct padding, kept zero on the wire.
	binary.LittleEndian.PutUint32(buf[8:12], r.Timestamp)
	return buf
}

// Unpack decodes a 12-byte wire record. The input length must match
// RecordSize exactly; Unpack never truncates or pads.
func Unpack(raw []byte) (Record, error) {
	if len(raw) != RecordSize {
		return Record{}, fmt.Errorf("protocol: record must be %d bytes, got %d", RecordSize, len(raw))
	}
	return Record{
		HeartRateX10: binary.LittleEndian.Uint16(raw[0:2]),
		TempCx100:    int16(binary.LittleEndian.Uint16(raw[2:4])),
		Steps:        binary.LittleEndian.Uint16(raw[4:6]),
		Timestamp:    binary.LittleEndian.Uint32(raw[8:12]),
	}, nil
}
