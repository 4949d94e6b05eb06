package capture

import (
	"fmt"
	"io"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Record is one unit read back from a capture stream.
type Record struct {
	Index uint32 // sequence index, recovered from the seconds field
	Flag  byte   // classification flag, recovered from the microseconds field
	Data  []byte
}

// Reader reads records produced by Writer. Both pcap byte orders are
// accepted; non-pcap input is rejected on construction.
type Reader struct {
	pr *pcapgo.Reader
}

// NewReader reads the pcap file header from in and returns a Reader over
// its records.
func NewReader(in io.Reader) (*Reader, error) {
	pr, err := pcapgo.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture file header: %w", err)
	}
	return &Reader{pr: pr}, nil
}

// ReadRecord returns the next record, or io.EOF at the end of the stream.
func (r *Reader) ReadRecord() (Record, error) {
	data, ci, err := r.pr.ReadPacketData()
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read capture record: %w", err)
	}

	return Record{
		Index: uint32(ci.Timestamp.Unix()),
		Flag:  byte(ci.Timestamp.Nanosecond() / 1000),
		Data:  data,
	}, nil
}

// LinkType returns the link type declared in the file header.
func (r *Reader) LinkType() layers.LinkType {
	return r.pr.LinkType()
}

// Snaplen returns the capture limit declared in the file header.
func (r *Reader) Snaplen() uint32 {
	return r.pr.Snaplen()
}
