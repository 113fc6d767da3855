// Package serial opens the host side of the sampler's serial link.
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is a byte-stream connection to a sampler. Captures read from it,
// the simulator CLI writes to it, and tests substitute an in-memory
// implementation.
type Port interface {
	io.ReadWriteCloser

	// Flush pushes any buffered writes out to the device
	Flush() error
}

// Config holds the link settings for one port.
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (the firmware ships at 115200; USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the link settings matching the firmware:
// 115200 baud, blocking reads.
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   115200,
	}
}

// ttyPort backs Port with a real device through tarm/serial.
type ttyPort struct {
	port *serial.Port
}

// Open opens the serial device named in cfg.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &ttyPort{port: port}, nil
}

// Read reads from the device.
func (p *ttyPort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes to the device.
func (p *ttyPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the device.
func (p *ttyPort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush is a no-op: tarm/serial writes straight through to the device.
func (p *ttyPort) Flush() error {
	return nil
}
