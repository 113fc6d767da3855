package adc

// Op records one access to a simulated register file.
type Op struct {
	Reg   Register
	Write bool
	Value uint32
}

// Sim is a scripted register file that mimics the converter's
// handshakes: command bits self-clear, status flags assert after a
// configurable number of polls, and the data register loads on end of
// conversion. Every access lands in a trace so tests can assert
// sequencing, not just outcomes.
//
// The sim holds the hardware to its contract: a calibration request
// is ignored while the converter is enabled, a start is honored only
// once the ready flag has asserted, and disabling abandons a pending
// start so a faulted converter can be brought back with Init.
//
// The countdown knobs give the number of polling reads it takes a
// flag to resolve: 1 resolves on the first read, higher values keep
// the poll loop spinning, negative values hang the flag forever.
// Zero selects the default of 2, so every handshake costs at least
// one full wait iteration.
type Sim struct {
	CalibrationReads int // RegCR reads until ADCAL clears
	DisableReads     int // RegCR reads until ADEN clears after ADDIS
	ReadyReads       int // RegISR reads until ADRDY asserts
	ConversionReads  int // RegISR reads until EOC asserts

	// SampleFunc supplies conversion results per channel. Queued
	// samples take precedence; Sample is the fallback when both are
	// unset.
	SampleFunc func(channel uint8) uint16
	Sample     uint16

	regs    [regCount]uint32
	queue   []uint16
	trace   []Op
	channel uint8
	calCnt  int
	disCnt  int
	rdyCnt  int
	eocCnt  int
}

var _ Registers = (*Sim)(nil)

// NewSim returns a simulator in the power-on reset state.
func NewSim() *Sim {
	return &Sim{}
}

// Read returns the register value after advancing any armed handshake
// countdowns, and records the access.
func (s *Sim) Read(r Register) uint32 {
	s.step(r)
	v := s.regs[r]
	s.trace = append(s.trace, Op{Reg: r, Value: v})
	return v
}

// Write records the access and applies the register's semantics:
// RegISR is write one to clear, RegCR arms the command handshakes,
// everything else stores the value.
func (s *Sim) Write(r Register, v uint32) {
	s.trace = append(s.trace, Op{Reg: r, Write: true, Value: v})
	switch r {
	case RegCR:
		s.writeCR(v)
	case RegISR:
		s.regs[RegISR] &^= v
	default:
		s.regs[r] = v
	}
}

func (s *Sim) writeCR(v uint32) {
	old := s.regs[RegCR]
	set := v &^ old

	if set&CR_ADCAL != 0 && old&CR_ADEN != 0 {
		// Calibration requests are ignored while enabled.
		v &^= uint32(CR_ADCAL)
	}
	s.regs[RegCR] = v

	if set&CR_ADCAL != 0 && old&CR_ADEN == 0 {
		s.calCnt = s.resolve(s.CalibrationReads)
	}
	if set&CR_ADDIS != 0 && old&CR_ADEN != 0 {
		s.disCnt = s.resolve(s.DisableReads)
	}
	if set&CR_ADEN != 0 && v&CR_ADDIS == 0 {
		// Enabling only leads to ready with the regulator up and
		// deep power down left.
		if v&CR_ADVREGEN != 0 && v&CR_DEEPPWD == 0 {
			s.rdyCnt = s.resolve(s.ReadyReads)
		}
	}
	if set&CR_ADSTART != 0 && s.regs[RegISR]&ISR_ADRDY != 0 {
		s.channel = uint8(s.regs[RegSQR1] >> SQR1_SQ1_Pos & 0x1F)
		s.eocCnt = s.resolve(s.ConversionReads)
	}
}

func (s *Sim) resolve(knob int) int {
	switch {
	case knob == 0:
		return 2
	case knob < 0:
		return -1
	}
	return knob
}

// step advances the countdowns tied to reads of r.
func (s *Sim) step(r Register) {
	switch r {
	case RegCR:
		if s.calCnt > 0 {
			s.calCnt--
			if s.calCnt == 0 {
				s.regs[RegCR] &^= uint32(CR_ADCAL)
			}
		}
		if s.disCnt > 0 {
			s.disCnt--
			if s.disCnt == 0 {
				s.regs[RegCR] &^= CR_ADEN | CR_ADDIS | CR_ADSTART
				s.regs[RegISR] &^= ISR_ADRDY | ISR_EOC
				s.eocCnt = 0
			}
		}
	case RegISR:
		if s.rdyCnt > 0 {
			s.rdyCnt--
			if s.rdyCnt == 0 {
				s.regs[RegISR] |= ISR_ADRDY
			}
		}
		if s.eocCnt > 0 {
			s.eocCnt--
			if s.eocCnt == 0 {
				s.regs[RegISR] |= ISR_EOC
				s.regs[RegDR] = uint32(s.next(s.channel))
				s.regs[RegCR] &^= uint32(CR_ADSTART)
			}
		}
	case RegDR:
		// Reading the data register clears end of conversion.
		s.regs[RegISR] &^= uint32(ISR_EOC)
	}
}

func (s *Sim) next(channel uint8) uint16 {
	if len(s.queue) > 0 {
		v := s.queue[0]
		s.queue = s.queue[1:]
		return v
	}
	if s.SampleFunc != nil {
		return s.SampleFunc(channel)
	}
	return s.Sample
}

// QueueSamples appends conversion results to be returned in order,
// ahead of SampleFunc and Sample.
func (s *Sim) QueueSamples(samples ...uint16) {
	s.queue = append(s.queue, samples...)
}

// Trace returns the accesses made so far. The slice aliases the live
// trace; copy it to keep it across further operations.
func (s *Sim) Trace() []Op { return s.trace }

// ResetTrace forgets the recorded accesses without touching register
// state.
func (s *Sim) ResetTrace() { s.trace = nil }

// Poke stores a register value directly, bypassing trace and side
// effects. Tests use it to stage preconditions.
func (s *Sim) Poke(r Register, v uint32) { s.regs[r] = v }

// Peek reads a register value directly, bypassing trace and side
// effects.
func (s *Sim) Peek(r Register) uint32 { return s.regs[r] }
