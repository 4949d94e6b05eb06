package telemetry

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// MockPort implements serial.Port over scripted in-memory data for testing.
type MockPort struct {
	ReadData      []byte
	WrittenData   []byte
	ReadError     error
	Closed        bool
	ReadCallCount int
}

var _ serial.Port = (*MockPort)(nil)

func (m *MockPort) Read(p []byte) (n int, err error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}

	m.ReadCallCount++

	if len(m.ReadData) == 0 {
		return 0, io.EOF
	}

	n = copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.Closed = true
	return nil
}

func (m *MockPort) SetMode(mode *serial.Mode) error                      { return nil }
func (m *MockPort) Drain() error                                         { return nil }
func (m *MockPort) ResetInputBuffer() error                              { return nil }
func (m *MockPort) ResetOutputBuffer() error                             { return nil }
func (m *MockPort) SetDTR(dtr bool) error                                { return nil }
func (m *MockPort) SetRTS(rts bool) error                                { return nil }
func (m *MockPort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return nil, nil }
func (m *MockPort) SetReadTimeout(t time.Duration) error                 { return nil }
func (m *MockPort) Break(d time.Duration) error                          { return nil }
