//go:build linux && !tinygo

package gpio

import "github.com/warthog618/gpiod"

// Line drives one line of a GPIO character device, for running the
// sampling loop on a Linux board instead of a microcontroller.
type Line struct {
	Chip   string // e.g. "gpiochip0"
	Offset int
	line   *gpiod.Line
}

var _ Pin = (*Line)(nil)

// ConfigureOutput requests the line from the chip as an output at the
// given initial level.
func (l *Line) ConfigureOutput(initial bool) error {
	line, err := gpiod.RequestLine(l.Chip, l.Offset, gpiod.AsOutput(levelValue(initial)))
	if err != nil {
		return err
	}
	l.line = line
	return nil
}

func (l *Line) Set(level bool) {
	if l.line == nil {
		return
	}
	_ = l.line.SetValue(levelValue(level))
}

// Close releases the requested line.
func (l *Line) Close() error {
	if l.line == nil {
		return nil
	}
	err := l.line.Close()
	l.line = nil
	return err
}

func levelValue(level bool) int {
	if level {
		return 1
	}
	return 0
}
