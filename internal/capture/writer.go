// Package capture writes and reads classified telemetry records as classic
// pcap, so standard packet inspection tools can open the output. Each record
// carries a synthetic timestamp: the seconds field holds the sequence index,
// the microseconds field holds the classification flag.
package capture

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const (
	DefaultSnapLen  = 65535               // record capture limit advertised in the file header
	DefaultLinkType = layers.LinkType(147) // DLT_USER0, first private-use link type
)

// Writer appends records to a pcap stream. Safe for use from multiple
// goroutines.
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	pw      *pcapgo.Writer
	records uint64
	closed  bool
}

// NewWriter writes the 24-byte pcap file header to out and returns a Writer
// for appending records. A container with zero records is valid.
func NewWriter(out io.Writer, snapLen uint32, linkType layers.LinkType) (*Writer, error) {
	pw := pcapgo.NewWriter(out)
	if err := pw.WriteFileHeader(snapLen, linkType); err != nil {
		return nil, fmt.Errorf("failed to write capture file header: %w", err)
	}
	return &Writer{out: out, pw: pw}, nil
}

// WriteRecord appends one record. Both length fields are set to len(data);
// no truncation is performed.
func (w *Writer) WriteRecord(index uint32, flag byte, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("capture writer is closed")
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(int64(index), int64(flag)*1000),
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := w.pw.WritePacket(ci, data); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	w.records++
	return nil
}

// Records returns the number of records written so far.
func (w *Writer) Records() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Close marks the writer closed and closes the underlying sink if it is an
// io.Closer. Close is idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if closer, ok := w.out.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close capture output: %w", err)
		}
	}
	return nil
}
