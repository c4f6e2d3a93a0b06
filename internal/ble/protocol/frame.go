// Package protocol implements the marker-framed transfer protocol spoken by
// the ESP32-DataNode firmware: notification packet classification, the
// fixed-width record codec, and the control-channel commands.
package protocol

import (
	"bytes"
	"encoding/base64"
	"strconv"
)

// Marker is the first byte of every notification packet.
const (
	MarkerStart byte = 'C' // announces the record count for a transfer
	MarkerData  byte = 'D' // carries one base64-encoded record
	MarkerEnd   byte = 'E' // closes the transfer
	MarkerAck   byte = 'A' // freeform diagnostic text from the device
)

// FrameType identifies the decoded variant of a notification packet.
type FrameType uint8

const (
	FrameUnknown FrameType = iota
	FrameStart
	FrameData
	FrameEnd
	FrameAck
)

func (t FrameType) String() string {
	switch t {
	case FrameStart:
		return "start"
	case FrameData:
		return "data"
	case FrameEnd:
		return "end"
	case FrameAck:
		return "ack"
	default:
		return "unknown"
	}
}

// Frame is one decoded notification packet. It is immutable once built.
//
// Expected is only meaningful for start frames, Payload holds the decoded
// record bytes for data frames (or the raw packet for unknown markers), and
// Ack holds the diagnostic text of ack frames. Malformed marks a start
// frame whose count was unreadable (Expected is then 0) or a data frame
// whose payload did not decode to a full record; the consumer decides how
// loudly to complain.
type Frame struct {
	Type      FrameType
	Expected  uint32
	Payload   []byte
	Ack       string
	Malformed bool
}

// Decode classifies a single notification packet. The second return value
// is false for an empty packet, which decodes to nothing. Decode never
// fails outright: unreadable payloads come back flagged Malformed and
// unrecognized markers come back as FrameUnknown carrying the raw bytes.
func Decode(raw []byte) (Frame, bool) {
	if len(raw) == 0 {
		return Frame{}, false
	}
	body := raw[1:]

	switch raw[0] {
	case MarkerStart:
		count, err := strconv.ParseUint(string(body), 10, 32)
		if err != nil {
			return Frame{Type: FrameStart, Malformed: true}, true
		}
		return Frame{Type: FrameStart, Expected: uint32(count)}, true

	case MarkerData:
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
		n, err := base64.StdEncoding.Decode(decoded, body)
		if err != nil || n != RecordSize {
			return Frame{Type: FrameData, Malformed: true}, true
		}
		return Frame{Type: FrameData, Payload: decoded[:n]}, true

	case MarkerEnd:
		return Frame{Type: FrameEnd}, true

	case MarkerAck:
		// Best-effort text; invalid bytes are substituted, never fatal.
		return Frame{Type: FrameAck, Ack: string(bytes.ToValidUTF8(body, []byte("�")))}, true

	default:
		cp := make([]byte, len(raw))
		copy(cp, raw)
		return Frame{Type: FrameUnknown, Payload: cp}, true
	}
}
