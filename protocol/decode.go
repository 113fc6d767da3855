package protocol

import (
	"bufio"
	"io"
)

type decodeState uint8

const (
	stateHunt decodeState = iota // waiting for the first sync byte
	stateSync                    // one sync byte seen
	stateLow                     // expecting the payload low byte
	stateHigh                    // expecting the payload high byte
)

// Decoder turns a byte stream back into samples. It is a four-state
// machine fed one byte at a time; when alignment is lost it hunts for
// the next doubled sync byte, counting what it threw away.
type Decoder struct {
	state   decodeState
	low     byte
	frames  uint64
	skipped uint64
}

// Feed advances the decoder by one byte. It returns the decoded sample
// and true when b completes a frame.
func (d *Decoder) Feed(b byte) (uint16, bool) {
	switch d.state {
	case stateHunt:
		if b == SyncByte {
			d.state = stateSync
		} else {
			d.skipped++
		}
	case stateSync:
		if b == SyncByte {
			d.state = stateLow
		} else {
			// The pending sync byte was stream garbage too.
			d.skipped += 2
			d.state = stateHunt
		}
	case stateLow:
		d.low = b
		d.state = stateHigh
	case stateHigh:
		d.state = stateHunt
		d.frames++
		return Sample(d.low, b), true
	}
	return 0, false
}

// Frames reports how many complete frames the decoder has produced.
func (d *Decoder) Frames() uint64 { return d.frames }

// Skipped reports how many bytes were discarded while hunting for
// frame alignment.
func (d *Decoder) Skipped() uint64 { return d.skipped }

// Scanner reads frames from an io.Reader, typically a serial port.
type Scanner struct {
	br *bufio.Reader
	d  Decoder
}

// NewScanner wraps r for frame-at-a-time reading.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{br: bufio.NewReader(r)}
}

// Next blocks until a complete frame arrives and returns its sample.
// It returns the underlying reader's error once the stream ends.
func (s *Scanner) Next() (uint16, error) {
	for {
		b, err := s.br.ReadByte()
		if err != nil {
			return 0, err
		}
		if sample, ok := s.d.Feed(b); ok {
			return sample, nil
		}
	}
}

// Frames reports how many complete frames the scanner has produced.
func (s *Scanner) Frames() uint64 { return s.d.Frames() }

// Skipped reports how many bytes the scanner discarded while seeking
// frame alignment.
func (s *Scanner) Skipped() uint64 { return s.d.Skipped() }
