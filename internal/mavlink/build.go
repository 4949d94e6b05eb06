package mavlink

import (
	"encoding/binary"
	"fmt"
)

// BuildFrame assembles a well-formed frame from a header and payload. The
// magic and payload length fields are taken from the inputs, and the trailing
// checksum is computed with the table's seed for the header's message id. A
// nil table selects the embedded default dialect.
func BuildFrame(hdr Header, payload []byte, table *SeedTable) ([]byte, error) {
	if len(payload) > MAX_PAYLOAD_SIZE {
		return nil, fmt.Errorf("payload too long: %d bytes (max %d)", len(payload), MAX_PAYLOAD_SIZE)
	}
	if table == nil {
		table = DefaultSeedTable()
	}

	total := HEADER_SIZE + len(payload) + CHECKSUM_SIZE
	frame := make([]byte, total)
	frame[0] = FRAME_MAGIC
	frame[1] = byte(len(payload))
	frame[2] = hdr.Sequence
	frame[3] = hdr.SystemID
	frame[4] = hdr.ComponentID
	frame[5] = hdr.MessageID
	copy(frame[HEADER_SIZE:], payload)

	crc := FrameChecksum(frame[1:total-CHECKSUM_SIZE], table.Seed(hdr.MessageID))
	binary.LittleEndian.PutUint16(frame[total-CHECKSUM_SIZE:], crc)
	return frame, nil
}
