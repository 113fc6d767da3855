// Package protocol implements the sampler's framed serial stream.
//
// Every conversion result travels as a fixed four-byte frame:
//
//	offset 0  sync byte 0xAA
//	offset 1  sync byte 0xAA
//	offset 2  sample low byte
//	offset 3  sample high byte (top four bits always zero)
//
// The payload is the raw 12-bit conversion result, little endian. There
// is no escaping: a receiver joining mid-stream regains alignment by
// scanning for the doubled sync byte. A payload byte equal to the sync
// value can alias the marker, so alignment is only guaranteed from the
// start of a frame.
package protocol

import (
	"errors"
	"io"
)

// Frame constants
const (
	SyncByte  = 0xAA   // frame marker, sent twice
	FrameSize = 4      // sync pair plus little-endian payload
	SampleMax = 0x0FFF // largest encodable sample (12-bit converter)
)

// Framing errors
var (
	ErrSampleRange = errors.New("protocol: sample exceeds 12 bits")
	ErrShortBuffer = errors.New("protocol: buffer shorter than one frame")
)

// PutFrame writes the frame for sample into the first FrameSize bytes
// of p.
func PutFrame(p []byte, sample uint16) error {
	if sample > SampleMax {
		return ErrSampleRange
	}
	if len(p) < FrameSize {
		return ErrShortBuffer
	}
	p[0] = SyncByte
	p[1] = SyncByte
	p[2] = byte(sample)
	p[3] = byte(sample >> 8)
	return nil
}

// AppendFrame appends the frame for sample to dst and returns the
// extended slice.
func AppendFrame(dst []byte, sample uint16) ([]byte, error) {
	if sample > SampleMax {
		return dst, ErrSampleRange
	}
	return append(dst, SyncByte, SyncByte, byte(sample), byte(sample>>8)), nil
}

// Sample reconstructs a sample from the two payload bytes of a frame.
func Sample(lo, hi byte) uint16 {
	return uint16(lo) | uint16(hi)<<8
}

// Encoder emits frames one byte at a time, so it writes to a UART
// transmit register as easily as to a buffered file.
type Encoder struct {
	w io.ByteWriter
}

// NewEncoder creates an Encoder that frames samples onto w.
func NewEncoder(w io.ByteWriter) *Encoder {
	return &Encoder{w: w}
}

// WriteSample frames sample and writes it to the underlying writer.
// Nothing is written when sample exceeds SampleMax.
func (e *Encoder) WriteSample(sample uint16) error {
	if sample > SampleMax {
		return ErrSampleRange
	}
	if err := e.w.WriteByte(SyncByte); err != nil {
		return err
	}
	if err := e.w.WriteByte(SyncByte); err != nil {
		return err
	}
	if err := e.w.WriteByte(byte(sample)); err != nil {
		return err
	}
	return e.w.WriteByte(byte(sample >> 8))
}
