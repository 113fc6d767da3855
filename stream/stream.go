// Package stream runs the sampler's steady-state loop: one blocking
// conversion, one framed write, one fixed pause, forever.
package stream

import (
	"context"
	"errors"
	"io"
	"time"

	"adcstream/gpio"
	"adcstream/protocol"
)

// Configuration errors
var (
	ErrNoSource = errors.New("stream: no sample source")
	ErrNoSink   = errors.New("stream: no frame sink")
)

// Source produces raw samples, one blocking conversion per call.
type Source interface {
	ReadRaw() (uint16, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (uint16, error)

func (f SourceFunc) ReadRaw() (uint16, error) { return f() }

// Config assembles a sampling loop.
type Config struct {
	// Source produces the samples.
	Source Source
	// Sink receives the framed stream byte by byte.
	Sink io.ByteWriter
	// SampleRate paces the loop in samples per second. Zero runs
	// unpaced.
	SampleRate uint32
	// MaxFrames stops the loop after that many frames. Zero runs
	// until the context is canceled or a collaborator fails.
	MaxFrames uint64
	// TxProbe, when set, is driven high around each frame write.
	TxProbe gpio.Pin
	// Flush, when set, runs after each frame, for buffered sinks.
	Flush func() error
	// Sleep replaces time.Sleep for pacing.
	Sleep func(time.Duration)
}

// Streamer emits framed samples at a fixed cadence.
type Streamer struct {
	cfg    Config
	enc    *protocol.Encoder
	period time.Duration
	frames uint64
}

// New validates cfg and builds a Streamer.
func New(cfg Config) (*Streamer, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.Sink == nil {
		return nil, ErrNoSink
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Streamer{
		cfg:    cfg,
		enc:    protocol.NewEncoder(cfg.Sink),
		period: Period(cfg.SampleRate),
	}, nil
}

// Period converts a sample rate in hertz to the pause between
// conversions, with microsecond resolution. Zero hertz means no
// pause.
func Period(hz uint32) time.Duration {
	if hz == 0 {
		return 0
	}
	return time.Duration(1_000_000/uint64(hz)) * time.Microsecond
}

// Run drives the loop until the context is canceled, a collaborator
// fails, or MaxFrames is reached. The cadence is open loop: a fixed
// pause per iteration, no drift correction.
func (s *Streamer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sample, err := s.cfg.Source.ReadRaw()
		if err != nil {
			return err
		}
		s.probe(true)
		err = s.enc.WriteSample(sample)
		s.probe(false)
		if err != nil {
			return err
		}
		if s.cfg.Flush != nil {
			if err := s.cfg.Flush(); err != nil {
				return err
			}
		}
		s.frames++
		if s.cfg.MaxFrames > 0 && s.frames >= s.cfg.MaxFrames {
			return nil
		}
		if s.period > 0 {
			s.cfg.Sleep(s.period)
		}
	}
}

// Frames reports how many frames Run has written.
func (s *Streamer) Frames() uint64 { return s.frames }

func (s *Streamer) probe(level bool) {
	if s.cfg.TxProbe != nil {
		s.cfg.TxProbe.Set(level)
	}
}
