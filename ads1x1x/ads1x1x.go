// Package ads1x1x drives a TI ADS1115 as an off-chip stand-in for the
// on-die converter: single-shot conversions of one single-ended
// input, results scaled to the sampler's 12-bit range.
//
// The driver is deliberately fixed function. Gain stays at +-2.048V
// and the data rate at 128 samples per second; only the input channel
// is selectable.
package ads1x1x

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Address is the default I2C address with the ADDR pin strapped to
// ground.
const Address = 0x48

// Registers
const (
	regConversion = 0x00
	regConfig     = 0x01
)

// Config register fields
const (
	cfgOS         = 0x8000 // write: begin conversion; read: conversion done
	cfgMuxSingle  = 0x4000 // AINx against ground, x in the next two bits
	cfgMuxChanPos = 12
	cfgPGA2048    = 0x0400 // +-2.048V full scale
	cfgModeSingle = 0x0100
	cfgDR128      = 0x0080 // 128 samples per second
	cfgCompOff    = 0x0003 // comparator disabled
)

// MaxChannel is the highest single-ended input.
const MaxChannel = 3

// Errors returned by the driver.
var (
	ErrInvalidChannel    = errors.New("ads1x1x: channel out of range")
	ErrConversionTimeout = errors.New("ads1x1x: conversion did not complete")
)

// Config controls addressing and poll behaviour. All fields are
// optional.
type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
	// Channel is the single-ended input ReadRaw converts, 0 to 3.
	Channel uint8
	// PollInterval paces the conversion-done polls. Default 1 ms.
	PollInterval time.Duration
	// ConversionTimeout bounds the wait for a conversion. At 128
	// samples per second a conversion takes about 8 ms; default
	// 100 ms.
	ConversionTimeout time.Duration
}

// Device wraps an I2C connection to an ADS1115.
type Device struct {
	bus     drivers.I2C
	Address uint16
	cfg     Config
	buf     [3]byte // reuse buffer to avoid allocations
}

// New creates a connection to a device on bus. The bus must already
// be configured.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies optional config. It may be called with no cfg for
// the defaults.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	c.Address = d.Address
	if c.PollInterval <= 0 {
		c.PollInterval = time.Millisecond
	}
	if c.ConversionTimeout <= 0 {
		c.ConversionTimeout = 100 * time.Millisecond
	}
	d.cfg = c
}

// Convert runs one single-shot conversion on the given single-ended
// input and scales the result to 12 bits. Inputs below ground clamp
// to zero.
func (d *Device) Convert(channel uint8) (uint16, error) {
	if channel > MaxChannel {
		return 0, ErrInvalidChannel
	}
	if d.cfg.ConversionTimeout == 0 {
		d.Configure()
	}

	cfg := uint16(cfgOS|cfgMuxSingle|cfgPGA2048|cfgModeSingle|cfgDR128|cfgCompOff) |
		uint16(channel)<<cfgMuxChanPos
	d.buf[0] = regConfig
	d.buf[1] = byte(cfg >> 8)
	d.buf[2] = byte(cfg)
	if err := d.bus.Tx(d.Address, d.buf[:3], nil); err != nil {
		return 0, err
	}

	deadline := time.Now().Add(d.cfg.ConversionTimeout)
	for {
		if err := d.bus.Tx(d.Address, []byte{regConfig}, d.buf[:2]); err != nil {
			return 0, err
		}
		if d.buf[0]&(cfgOS>>8) != 0 {
			break
		}
		if time.Now().After(deadline) {
			return 0, ErrConversionTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}

	if err := d.bus.Tx(d.Address, []byte{regConversion}, d.buf[:2]); err != nil {
		return 0, err
	}
	raw := int16(uint16(d.buf[0])<<8 | uint16(d.buf[1]))
	if raw < 0 {
		return 0, nil
	}
	return uint16(raw) >> 3, nil
}

// ReadRaw converts the configured channel. It is the sampling loop's
// source contract.
func (d *Device) ReadRaw() (uint16, error) {
	return d.Convert(d.cfg.Channel)
}
