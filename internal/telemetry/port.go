// Package telemetry captures raw bytes from a serial telemetry radio so a
// live session can be converted the same way as a log file.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"
)

const DefaultBaudRate = 115200

// Config selects the serial source.
type Config struct {
	PortName string
	BaudRate int // zero selects DefaultBaudRate
}

// Port is an open serial telemetry source.
type Port struct {
	serial.Port
	name string
}

// Open opens the configured serial port at 8N1.
func Open(cfg Config) (*Port, error) {
	if cfg.PortName == "" {
		return nil, fmt.Errorf("no serial port name configured")
	}

	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.PortName, err)
	}

	return &Port{Port: port, name: cfg.PortName}, nil
}

// Name returns the configured port name.
func (p *Port) Name() string {
	return p.name
}

// Capture drains the port into w until the context is cancelled, the port
// reports io.EOF, or a read fails. Cancellation is checked between reads; a
// blocked read finishes before the loop notices it. Returns the number of
// bytes captured.
func (p *Port) Capture(ctx context.Context, w io.Writer) (int64, error) {
	var total int64
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return total, nil
		default:
			n, err := p.Port.Read(buf)
			if n > 0 {
				if _, werr := w.Write(buf[:n]); werr != nil {
					return total, fmt.Errorf("failed to write captured bytes: %w", werr)
				}
				total += int64(n)
			}
			if err == io.EOF {
				return total, nil
			}
			if err != nil {
				return total, fmt.Errorf("failed to read serial port: %w", err)
			}
		}
	}
}
