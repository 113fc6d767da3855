package adc

import (
	"errors"
	"time"

	"adcstream/gpio"
)

// Sequencing faults. The timeouts that raise them are configurable;
// a zero timeout spins forever instead, see Config.
var (
	ErrNotInitialized     = errors.New("adc: converter not initialized")
	ErrInvalidChannel     = errors.New("adc: channel out of range")
	ErrDisableTimeout     = errors.New("adc: converter stuck disabling")
	ErrCalibrationTimeout = errors.New("adc: calibration did not complete")
	ErrReadyTimeout       = errors.New("adc: ready flag did not assert")
	ErrConversionTimeout  = errors.New("adc: conversion did not complete")
)

// Config carries the converter's board-level settings. The zero value
// is usable but waits forever on every handshake; DefaultConfig bounds
// the waits.
type Config struct {
	// Channel is the input whose sample time is programmed during
	// Init and the one ReadRaw converts. Convert may still select
	// any channel per call.
	Channel uint8
	// SampleTime is the 3-bit sample-time code applied to Channel.
	SampleTime uint8
	// Prescaler is the CCR PRESC code dividing the kernel clock.
	Prescaler uint32
	// RegulatorSettle is the pause after switching the internal
	// voltage regulator on.
	RegulatorSettle time.Duration

	// Handshake timeouts. Zero waits forever, which is the usual
	// setting on bare metal.
	DisableTimeout     time.Duration
	CalibrationTimeout time.Duration
	ReadyTimeout       time.Duration
	ConversionTimeout  time.Duration

	// PollInterval is slept between status polls. Zero busy-spins.
	PollInterval time.Duration

	// Probe, when set, is driven high while a conversion is in
	// flight and low once it completes.
	Probe gpio.Pin

	// Sleep replaces time.Sleep for settle pauses and poll pacing.
	Sleep func(time.Duration)
}

// DefaultConfig returns the settings of the reference board: channel 5
// at the shortest sample time, kernel clock divided by 8, and bounded
// handshake waits.
func DefaultConfig() Config {
	return Config{
		Channel:            5,
		SampleTime:         SMP_2_5,
		Prescaler:          CCR_PRESC_DIV8,
		RegulatorSettle:    20 * time.Microsecond,
		DisableTimeout:     10 * time.Millisecond,
		CalibrationTimeout: 100 * time.Millisecond,
		ReadyTimeout:       100 * time.Millisecond,
		ConversionTimeout:  100 * time.Millisecond,
	}
}

// Converter owns one converter block. Methods must be called from a
// single goroutine; the peripheral has no notion of concurrent access.
type Converter struct {
	regs  Registers
	cfg   Config
	ready bool
}

// New wires a Converter to a register file. Call Init before Convert.
func New(regs Registers, cfg Config) *Converter {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Converter{regs: regs, cfg: cfg}
}

// Init brings the converter from any power state to ready:
//
//  1. gate the clock and select the kernel clock source
//  2. program the common prescaler, so calibration runs at the
//     intended kernel clock rate
//  3. disable the converter if a previous run left it enabled
//  4. leave deep power down and switch the voltage regulator on,
//     then let it settle
//  5. run offset calibration and wait for it to finish
//  6. program resolution, single conversion mode, sequence length
//     and the configured channel's sample time
//  7. enable and wait for the ready flag
//
// Calibration must run before enable; the hardware ignores the
// calibration request otherwise. Calling Init again reruns the full
// sequence, which is also how a faulted converter is recovered.
func (c *Converter) Init() error {
	if c.cfg.Channel > MaxChannel {
		return ErrInvalidChannel
	}
	c.ready = false
	regs := c.regs

	// The clock must run before any register in the block is touched.
	regs.Write(RegCLK, regs.Read(RegCLK)|CLK_EN|CLK_SYSSEL)
	regs.Write(RegCCR, regs.Read(RegCCR)&^uint32(CCR_PRESC_Msk)|c.cfg.Prescaler<<CCR_PRESC_Pos)

	if regs.Read(RegCR)&CR_ADEN != 0 {
		regs.Write(RegCR, regs.Read(RegCR)|CR_ADDIS)
		if err := c.waitClear(RegCR, CR_ADEN, c.cfg.DisableTimeout, ErrDisableTimeout); err != nil {
			return err
		}
	}

	regs.Write(RegCR, regs.Read(RegCR)&^uint32(CR_DEEPPWD))
	regs.Write(RegCR, regs.Read(RegCR)|CR_ADVREGEN)
	c.sleep(c.cfg.RegulatorSettle)

	regs.Write(RegCR, regs.Read(RegCR)|CR_ADCAL)
	if err := c.waitClear(RegCR, CR_ADCAL, c.cfg.CalibrationTimeout, ErrCalibrationTimeout); err != nil {
		return err
	}

	// 12-bit, one software-triggered conversion at a time.
	regs.Write(RegCFGR, regs.Read(RegCFGR)&^uint32(CFGR_RES_Msk))
	regs.Write(RegCFGR, regs.Read(RegCFGR)&^uint32(CFGR_CONT))

	regs.Write(RegSQR1, regs.Read(RegSQR1)&^uint32(SQR1_L_Msk))
	smpr, shift := smprField(c.cfg.Channel)
	regs.Write(smpr, regs.Read(smpr)&^(0x7<<shift)|uint32(c.cfg.SampleTime&0x7)<<shift)

	regs.Write(RegCR, regs.Read(RegCR)|CR_ADEN)
	if err := c.waitSet(RegISR, ISR_ADRDY, c.cfg.ReadyTimeout, ErrReadyTimeout); err != nil {
		return err
	}

	c.ready = true
	return nil
}

// Ready reports whether Init has completed since construction or the
// last fault-free reinitialization.
func (c *Converter) Ready() bool { return c.ready }

// Convert runs one conversion on channel and returns the 12-bit
// result: select the channel as the whole sequence, acknowledge any
// stale end-of-conversion flag, start, wait, read.
//
// Reading the data register also clears the end-of-conversion flag in
// hardware; the explicit acknowledge before start keeps a leftover
// flag from ending the wait early.
func (c *Converter) Convert(channel uint8) (uint16, error) {
	if !c.ready {
		return 0, ErrNotInitialized
	}
	if channel > MaxChannel {
		return 0, ErrInvalidChannel
	}
	regs := c.regs
	c.probe(true)

	regs.Write(RegSQR1, regs.Read(RegSQR1)&^uint32(SQR1_SQ1_Msk|SQR1_L_Msk)|uint32(channel)<<SQR1_SQ1_Pos)
	regs.Write(RegISR, ISR_EOC)
	regs.Write(RegCR, regs.Read(RegCR)|CR_ADSTART)

	if err := c.waitSet(RegISR, ISR_EOC, c.cfg.ConversionTimeout, ErrConversionTimeout); err != nil {
		c.probe(false)
		return 0, err
	}
	c.probe(false)
	return uint16(regs.Read(RegDR) & dataMask), nil
}

// ReadRaw converts the configured channel. It is the sampling loop's
// source contract.
func (c *Converter) ReadRaw() (uint16, error) {
	return c.Convert(c.cfg.Channel)
}

func (c *Converter) waitClear(r Register, mask uint32, timeout time.Duration, fault error) error {
	return c.wait(func() bool { return c.regs.Read(r)&mask == 0 }, timeout, fault)
}

func (c *Converter) waitSet(r Register, mask uint32, timeout time.Duration, fault error) error {
	return c.wait(func() bool { return c.regs.Read(r)&mask != 0 }, timeout, fault)
}

// wait polls until done reports true. A zero timeout polls forever.
func (c *Converter) wait(done func() bool, timeout time.Duration, fault error) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for !done() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fault
		}
		if c.cfg.PollInterval > 0 {
			c.cfg.Sleep(c.cfg.PollInterval)
		}
	}
	return nil
}

func (c *Converter) sleep(d time.Duration) {
	if d > 0 {
		c.cfg.Sleep(d)
	}
}

func (c *Converter) probe(level bool) {
	if c.cfg.Probe != nil {
		c.cfg.Probe.Set(level)
	}
}
