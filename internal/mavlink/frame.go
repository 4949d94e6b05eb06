// Package mavlink recovers framed telemetry packets from raw, unreliably
// delimited byte streams.
package mavlink

import (
	"fmt"
)

// MAVLink v1 wire format constants
// These define the fixed layout of frames on the telemetry link
const (
	FRAME_MAGIC      = 0xFE                            // Start-of-frame sentinel byte
	HEADER_SIZE      = 6                               // Magic + payload length + sequence + system id + component id + message id
	CHECKSUM_SIZE    = 2                               // Trailing CRC-16/X.25, little-endian
	FRAME_OVERHEAD   = HEADER_SIZE + CHECKSUM_SIZE     // Bytes in a frame that are not payload
	MAX_PAYLOAD_SIZE = 255                             // Payload length field is a single byte
	MAX_FRAME_SIZE   = FRAME_OVERHEAD + MAX_PAYLOAD_SIZE // 263 bytes
)

// Header is the fixed 6-byte prefix of every frame. Only PayloadLength and
// MessageID participate in framing decisions; the remaining fields are
// carried through untouched for downstream dissectors.
type Header struct {
	Magic         uint8 // Start-of-frame sentinel (0xFE)
	PayloadLength uint8 // Number of payload bytes between header and checksum
	Sequence      uint8 // Link-level sequence number (not used for validation)
	SystemID      uint8 // Sending system
	ComponentID   uint8 // Sending component within the system
	MessageID     uint8 // Message type; selects the checksum seed byte
}

// TotalLength returns the full on-wire size of the frame this header starts.
func (h Header) TotalLength() int {
	return FRAME_OVERHEAD + int(h.PayloadLength)
}

// ParseHeader parses a frame header from the first 6 bytes of data. The
// candidate is rejected if data is short or does not begin with the sentinel.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HEADER_SIZE {
		return Header{}, fmt.Errorf("insufficient data for header: expected %d bytes, got %d", HEADER_SIZE, len(data))
	}
	if data[0] != FRAME_MAGIC {
		return Header{}, fmt.Errorf("invalid frame magic: expected 0x%02X, got 0x%02X", FRAME_MAGIC, data[0])
	}
	return Header{
		Magic:         data[0],
		PayloadLength: data[1],
		Sequence:      data[2],
		SystemID:      data[3],
		ComponentID:   data[4],
		MessageID:     data[5],
	}, nil
}

// Classification labels one extracted unit. The values double as the flag
// byte stored in the capture container's microsecond field.
type Classification byte

const (
	ClassValid         Classification = 0x00 // Frame with a matching checksum
	ClassChecksumError Classification = 0x01 // Frame whose length was confirmed but whose checksum disagrees
	ClassJunk          Classification = 0x03 // Bytes consumed outside any recognised frame
)

func (c Classification) String() string {
	switch c {
	case ClassValid:
		return "ok"
	case ClassChecksumError:
		return "crc-error"
	case ClassJunk:
		return "junk"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(c))
	}
}

// Record is one classified unit of the input stream: a frame or a junk
// fragment, its classification, and the 1-based extraction sequence index
// used downstream as a synthetic timestamp. Data aliases the input buffer
// for frames and must not be mutated.
type Record struct {
	Seq   uint32         // Extraction sequence index (1-based; shared by a junk unit and a frame found in the same scan step)
	Class Classification // Unit classification
	Data  []byte         // Raw bytes, exactly as they appeared on the stream
}
