// Package gpio defines the digital-output surface the sampler uses
// for its timing-probe pins, with a character-device implementation
// for Linux hosts and fakes for tests.
package gpio

// Pin is a single digital output.
type Pin interface {
	// ConfigureOutput puts the pin in push-pull output mode at the
	// given initial level.
	ConfigureOutput(initial bool) error
	// Set drives the pin high or low.
	Set(level bool)
}

// NopPin satisfies Pin without touching hardware. It stands in for an
// unpopulated probe.
type NopPin struct{}

var _ Pin = NopPin{}

func (NopPin) ConfigureOutput(bool) error { return nil }

func (NopPin) Set(bool) {}

// FakePin records every driven level for tests.
type FakePin struct {
	Configured bool
	Initial    bool
	Levels     []bool
}

var _ Pin = (*FakePin)(nil)

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.Configured = true
	p.Initial = initial
	return nil
}

func (p *FakePin) Set(level bool) {
	p.Levels = append(p.Levels, level)
}

// Level reports the most recently driven level, or the initial level
// when none has been driven.
func (p *FakePin) Level() bool {
	if len(p.Levels) == 0 {
		return p.Initial
	}
	return p.Levels[len(p.Levels)-1]
}
