// Package capture consumes a sampler's framed serial stream on the
// host.
package capture

import (
	"fmt"

	"adcstream/host/serial"
	"adcstream/protocol"
)

// Session is an open capture from one sampler.
type Session struct {
	port    serial.Port
	scanner *protocol.Scanner
}

// Open connects to a sampler on device using the default link
// settings.
func Open(device string) (*Session, error) {
	return OpenWithConfig(serial.DefaultConfig(device))
}

// OpenWithConfig connects to a sampler with a custom serial config.
func OpenWithConfig(cfg *serial.Config) (*Session, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return Attach(port), nil
}

// Attach wraps an already open port, typically a mock in tests.
func Attach(port serial.Port) *Session {
	return &Session{
		port:    port,
		scanner: protocol.NewScanner(port),
	}
}

// Next blocks until the next complete frame arrives and returns its
// sample. A session joining mid-stream silently discards bytes until
// it finds a frame boundary; see Skipped.
func (s *Session) Next() (uint16, error) {
	return s.scanner.Next()
}

// Frames reports how many frames the session has decoded.
func (s *Session) Frames() uint64 { return s.scanner.Frames() }

// Skipped reports how many bytes were discarded while hunting for
// frame alignment.
func (s *Session) Skipped() uint64 { return s.scanner.Skipped() }

// Close closes the underlying port.
func (s *Session) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Millivolts scales a 12-bit sample against a reference voltage given
// in millivolts.
func Millivolts(raw uint16, vref uint32) uint32 {
	return uint32(raw) * vref / 4095
}
