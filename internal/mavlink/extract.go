package mavlink

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
)

/*
Resynchronizing Frame Extractor Architecture

The extractor recovers telemetry frames from a byte stream with no transport
framing: boundaries must be inferred from the sentinel byte, the in-frame
length field, and a checksum that is only computable once the claimed length
is trusted. Corruption and false sentinels are expected, so the extractor is
built around recovery rather than rejection.

FRAME STRUCTURE (8-263 bytes total):
├── Header (6 bytes)
│   └── magic (0xFE) + payload_length + sequence + system_id + component_id + message_id
├── Payload (payload_length bytes, 0-255)
└── Checksum (2 bytes, little-endian CRC-16/X.25 plus per-message seed byte)

SCAN STATE MACHINE (one sequence index per iteration):
1. Sentinel search - bytes before the next 0xFE, plus a pending carry byte,
   are emitted as one junk unit
2. Header attempt - fewer than 6 bytes at the sentinel ends the pass
3. Length check - a claimed total past the buffer end ends the pass
4. Checksum verification - X.25 over header-after-magic plus payload, one
   extra accumulation of the seed byte for the message id
5. Resync confirmation - the byte after the proposed frame must be another
   sentinel; otherwise the length field cannot be trusted, the first byte of
   the candidate is stowed as a carry, and the scan advances by exactly one
6. Emit - classification (valid vs checksum error) is independent of the
   resync check, which validates only the length

The confirmation step means a frame is never accepted on its own evidence: a
corrupted length field would otherwise swallow the following frame. The cost
is the documented tail asymmetry: the final frame in a buffer has no byte
after it, so the pass ends without emitting it. Mid-stream junk is always
emitted; the tail after the last confirmed unit is dropped uncounted.

The carry byte survives across emitted frames and is consumed by the next
junk unit. A second resync failure before that overwrites it, losing the
older byte. A carry still pending at termination is dropped with the tail.
*/

// Extractor scans a raw byte buffer and produces classified units in stream
// order. It reads the buffer by slice and never mutates it; frame records
// alias the buffer, junk records own their bytes.
type Extractor struct {
	buf   []byte
	table *SeedTable

	pos      int
	seq      uint32
	carry    byte
	hasCarry bool

	queued []Record
	done   bool

	stats Stats
	debug bool
}

// NewExtractor returns an extractor over buf using the given seed table.
// A nil table selects the embedded default dialect.
func NewExtractor(buf []byte, table *SeedTable) *Extractor {
	if table == nil {
		table = DefaultSeedTable()
	}
	return &Extractor{buf: buf, table: table}
}

// SetDebug enables per-unit trace logging
func (e *Extractor) SetDebug(enabled bool) {
	e.debug = enabled
}

// Stats returns the classification counters accumulated so far. They are
// final once Next has returned io.EOF.
func (e *Extractor) Stats() Stats {
	return e.stats
}

// Next returns the next classified unit. It returns io.EOF once the buffer
// is exhausted; the sequence cannot be restarted.
func (e *Extractor) Next() (Record, error) {
	for {
		if len(e.queued) > 0 {
			rec := e.queued[0]
			e.queued = e.queued[1:]
			return rec, nil
		}
		if e.done {
			return Record{}, io.EOF
		}
		e.advance()
	}
}

// advance runs one scan iteration, queueing zero, one, or two records. A
// junk unit and the frame confirmed directly after it share an iteration
// and therefore a sequence index.
func (e *Extractor) advance() {
	e.seq++

	off := bytes.IndexByte(e.buf[e.pos:], FRAME_MAGIC)
	if off < 0 {
		e.done = true
		return
	}
	if off > 0 {
		junk := make([]byte, 0, off+1)
		if e.hasCarry {
			junk = append(junk, e.carry)
			e.hasCarry = false
		}
		junk = append(junk, e.buf[e.pos:e.pos+off]...)
		e.pos += off
		e.stats.Junk++
		if e.debug {
			log.Printf("skipped %d bytes", len(junk))
		}
		e.queued = append(e.queued, Record{Seq: e.seq, Class: ClassJunk, Data: junk})
	}

	if len(e.buf)-e.pos < HEADER_SIZE {
		e.done = true
		return
	}

	payloadLen := int(e.buf[e.pos+1])
	total := HEADER_SIZE + payloadLen + CHECKSUM_SIZE
	if e.pos+total > len(e.buf) {
		e.done = true
		return
	}

	msgID := e.buf[e.pos+5]
	computed := FrameChecksum(e.buf[e.pos+1:e.pos+HEADER_SIZE+payloadLen], e.table.Seed(msgID))
	stored := binary.LittleEndian.Uint16(e.buf[e.pos+total-CHECKSUM_SIZE : e.pos+total])
	class := ClassValid
	if computed != stored {
		class = ClassChecksumError
	}

	if e.pos+total == len(e.buf) {
		// Frame ends exactly at the buffer end: no room for the
		// confirmation byte, so the length field stays unverified.
		e.done = true
		return
	}
	if e.buf[e.pos+total] != FRAME_MAGIC {
		if e.debug {
			log.Printf("packet %d has invalid length, crc error: %d", e.seq, byte(class))
		}
		e.carry = e.buf[e.pos]
		e.hasCarry = true
		e.pos++
		return
	}

	if class == ClassValid {
		e.stats.Valid++
	} else {
		e.stats.ChecksumErrors++
	}
	if e.debug {
		log.Printf("packet %d ok, crc error: %d", e.seq, byte(class))
	}
	e.queued = append(e.queued, Record{Seq: e.seq, Class: class, Data: e.buf[e.pos : e.pos+total]})
	e.pos += total
}
