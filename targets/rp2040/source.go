//go:build rp2040 || rp2350

package main

import (
	"machine"

	"adcstream/gpio"
)

// picoSource reads the on-chip converter through the machine API and
// scales its left-justified 16-bit readings down to the stream's
// 12-bit range.
type picoSource struct {
	adc   machine.ADC
	probe gpio.Pin
}

func (s *picoSource) ReadRaw() (uint16, error) {
	if s.probe != nil {
		s.probe.Set(true)
	}
	v := s.adc.Get() >> 4
	if s.probe != nil {
		s.probe.Set(false)
	}
	return v, nil
}

// machinePin adapts a machine.Pin to the probe interface.
type machinePin struct {
	pin machine.Pin
}

var _ gpio.Pin = (*machinePin)(nil)

func (p *machinePin) ConfigureOutput(initial bool) error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pin.Set(initial)
	return nil
}

func (p *machinePin) Set(level bool) {
	p.pin.Set(level)
}
