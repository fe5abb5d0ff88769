package transport

import (
	"time"

	"go.bug.st/serial"
)

// SerialConfig carries the line parameters needed to open a serial port
// for RTU or ASCII framing. Grounded on go.bug.st/serial's serial.Mode,
// the library the teacher's go.mod already depends on (its serial.go
// file targeted a different, mismatched package and is disregarded).
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
}

// serialConnection adapts a serial.Port to Connection.
type serialConnection struct {
	port   serial.Port
	device string
}

// DialSerial opens the serial port described by cfg.
func DialSerial(cfg SerialConfig) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, err
	}
	return &serialConnection{port: port, device: cfg.Device}, nil
}

func (c *serialConnection) Read(p []byte) (int, error)  { return c.port.Read(p) }
func (c *serialConnection) Write(p []byte) (int, error) { return c.port.Write(p) }
func (c *serialConnection) Close() error                { return c.port.Close() }

// SetDeadline maps onto go.bug.st/serial's read timeout, since the
// library has no notion of a combined read/write deadline; writes on a
// serial line are not expected to block under normal operation.
func (c *serialConnection) SetDeadline(t time.Time) error {
	timeout := time.Until(t)
	if timeout < 0 {
		timeout = 0
	}
	return c.port.SetReadTimeout(timeout)
}

func (c *serialConnection) RemoteAddr() string { return c.device }
