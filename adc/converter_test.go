package adc

import (
	"testing"
	"time"

	"adcstream/gpio"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	return cfg
}

func newReadyConverter(t *testing.T, sim *Sim) *Converter {
	t.Helper()
	c := New(sim, testConfig())
	if err := c.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return c
}

// firstWrite returns the index of the first write to r whose value has
// every bit of mask set, or -1. A zero mask matches any write to r.
func firstWrite(trace []Op, r Register, mask uint32) int {
	for i, op := range trace {
		if op.Write && op.Reg == r && op.Value&mask == mask {
			return i
		}
	}
	return -1
}

func TestInitSequenceOrder(t *testing.T) {
	sim := NewSim()
	newReadyConverter(t, sim)
	trace := sim.Trace()

	for _, op := range trace {
		if op.Write {
			if op.Reg != RegCLK {
				t.Errorf("First write hit register %d before the clock gate", op.Reg)
			}
			break
		}
	}

	indices := map[string]int{
		"clock":       firstWrite(trace, RegCLK, CLK_EN),
		"prescaler":   firstWrite(trace, RegCCR, 0),
		"calibration": firstWrite(trace, RegCR, CR_ADCAL),
		"resolution":  firstWrite(trace, RegCFGR, 0),
		"sequence":    firstWrite(trace, RegSQR1, 0),
		"enable":      firstWrite(trace, RegCR, CR_ADEN),
	}
	for name, idx := range indices {
		if idx < 0 {
			t.Fatalf("Init never performed the %s write", name)
		}
	}
	if !(indices["clock"] < indices["prescaler"] &&
		indices["prescaler"] < indices["calibration"] &&
		indices["calibration"] < indices["resolution"] &&
		indices["resolution"] < indices["enable"] &&
		indices["sequence"] < indices["enable"]) {
		t.Errorf("Init writes out of order: %v", indices)
	}
	if firstWrite(trace, RegCR, CR_ADSTART) != -1 {
		t.Errorf("Init started a conversion")
	}
}

func TestInitDisablesRunningConverter(t *testing.T) {
	sim := NewSim()
	sim.Poke(RegCR, CR_ADEN|CR_ADVREGEN)
	sim.Poke(RegISR, ISR_ADRDY)
	newReadyConverter(t, sim)
	trace := sim.Trace()

	dis := firstWrite(trace, RegCR, CR_ADDIS)
	cal := firstWrite(trace, RegCR, CR_ADCAL)
	if dis < 0 {
		t.Fatalf("Init never requested a disable")
	}
	if cal < 0 {
		t.Fatalf("Init never requested calibration")
	}
	if dis > cal {
		t.Errorf("Disable at %d came after calibration at %d", dis, cal)
	}
	if sim.Peek(RegCR)&CR_ADEN == 0 {
		t.Errorf("Init left the converter disabled")
	}
}

func TestInitDisableTimeout(t *testing.T) {
	sim := NewSim()
	sim.DisableReads = -1
	sim.Poke(RegCR, CR_ADEN)
	cfg := testConfig()
	cfg.DisableTimeout = time.Millisecond
	c := New(sim, cfg)
	if err := c.Init(); err != ErrDisableTimeout {
		t.Fatalf("Expected ErrDisableTimeout, got %v", err)
	}
	if c.Ready() {
		t.Errorf("Converter reports ready after a failed Init")
	}
}

func TestInitCalibrationTimeout(t *testing.T) {
	sim := NewSim()
	sim.CalibrationReads = -1
	cfg := testConfig()
	cfg.CalibrationTimeout = time.Millisecond
	c := New(sim, cfg)
	if err := c.Init(); err != ErrCalibrationTimeout {
		t.Fatalf("Expected ErrCalibrationTimeout, got %v", err)
	}
}

func TestInitReadyTimeout(t *testing.T) {
	sim := NewSim()
	sim.ReadyReads = -1
	cfg := testConfig()
	cfg.ReadyTimeout = time.Millisecond
	c := New(sim, cfg)
	if err := c.Init(); err != ErrReadyTimeout {
		t.Fatalf("Expected ErrReadyTimeout, got %v", err)
	}
}

func TestInitRejectsInvalidChannel(t *testing.T) {
	sim := NewSim()
	cfg := testConfig()
	cfg.Channel = MaxChannel + 1
	c := New(sim, cfg)
	if err := c.Init(); err != ErrInvalidChannel {
		t.Fatalf("Expected ErrInvalidChannel, got %v", err)
	}
	if len(sim.Trace()) != 0 {
		t.Errorf("Rejected Init still touched %d registers", len(sim.Trace()))
	}
}

func TestInitProgramsSampleTimeHighChannel(t *testing.T) {
	sim := NewSim()
	cfg := testConfig()
	cfg.Channel = 12
	cfg.SampleTime = SMP_247_5
	c := New(sim, cfg)
	if err := c.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := sim.Peek(RegSMPR2) >> 6 & 0x7; got != SMP_247_5 {
		t.Errorf("SMPR2 field for channel 12 = %d, want %d", got, SMP_247_5)
	}
	if sim.Peek(RegSMPR1) != 0 {
		t.Errorf("SMPR1 written for a channel above 9: %#x", sim.Peek(RegSMPR1))
	}
}

func TestConvertBeforeInit(t *testing.T) {
	sim := NewSim()
	c := New(sim, testConfig())
	if _, err := c.Convert(5); err != ErrNotInitialized {
		t.Fatalf("Expected ErrNotInitialized, got %v", err)
	}
	if len(sim.Trace()) != 0 {
		t.Errorf("Convert before Init touched %d registers", len(sim.Trace()))
	}
}

func TestConvertRejectsInvalidChannel(t *testing.T) {
	sim := NewSim()
	c := newReadyConverter(t, sim)
	sim.ResetTrace()
	if _, err := c.Convert(MaxChannel + 1); err != ErrInvalidChannel {
		t.Fatalf("Expected ErrInvalidChannel, got %v", err)
	}
	if len(sim.Trace()) != 0 {
		t.Errorf("Rejected Convert still touched %d registers", len(sim.Trace()))
	}
}

func TestConvertSingleEntrySequence(t *testing.T) {
	sim := NewSim()
	c := newReadyConverter(t, sim)
	for _, ch := range []uint8{0, 3, 9, 10, MaxChannel} {
		if _, err := c.Convert(ch); err != nil {
			t.Fatalf("Convert(%d) failed: %v", ch, err)
		}
		sqr := sim.Peek(RegSQR1)
		if sqr&SQR1_L_Msk != 0 {
			t.Errorf("Channel %d: sequence length field = %d, want 0", ch, sqr&SQR1_L_Msk)
		}
		if got := uint8(sqr >> SQR1_SQ1_Pos & 0x1F); got != ch {
			t.Errorf("Channel %d: first sequence entry = %d", ch, got)
		}
	}
}

func TestConvertOrdering(t *testing.T) {
	sim := NewSim()
	c := newReadyConverter(t, sim)
	sim.ResetTrace()
	if _, err := c.Convert(5); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	trace := sim.Trace()

	sel := firstWrite(trace, RegSQR1, 0)
	ack := firstWrite(trace, RegISR, ISR_EOC)
	start := firstWrite(trace, RegCR, CR_ADSTART)
	if sel < 0 || ack < 0 || start < 0 {
		t.Fatalf("Convert skipped a step: select=%d ack=%d start=%d", sel, ack, start)
	}
	if !(sel < start && ack < start) {
		t.Errorf("Convert writes out of order: select=%d ack=%d start=%d", sel, ack, start)
	}
}

func TestConvertReturnsFreshSamples(t *testing.T) {
	sim := NewSim()
	c := newReadyConverter(t, sim)
	sim.QueueSamples(100, 200, 300)
	for i, want := range []uint16{100, 200, 300} {
		got, err := c.Convert(5)
		if err != nil {
			t.Fatalf("Convert %d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Convert %d = %d, want %d", i, got, want)
		}
	}
}

func TestConvertBoundaryValues(t *testing.T) {
	sim := NewSim()
	c := newReadyConverter(t, sim)
	sim.QueueSamples(0x0000, 0x0FFF)
	for _, want := range []uint16{0x0000, 0x0FFF} {
		got, err := c.Convert(5)
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		if got != want {
			t.Errorf("Convert = %#04x, want %#04x", got, want)
		}
	}
}

func TestConvertMasksDataRegister(t *testing.T) {
	sim := NewSim()
	c := newReadyConverter(t, sim)
	sim.Sample = 0xFFFF
	got, err := c.Convert(5)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if got != 0x0FFF {
		t.Errorf("Convert = %#04x, want the 12-bit mask %#04x", got, 0x0FFF)
	}
}

func TestConvertRoutesChannel(t *testing.T) {
	sim := NewSim()
	c := newReadyConverter(t, sim)
	sim.SampleFunc = func(ch uint8) uint16 { return uint16(ch) * 100 }
	for _, ch := range []uint8{2, 7, 11} {
		got, err := c.Convert(ch)
		if err != nil {
			t.Fatalf("Convert(%d) failed: %v", ch, err)
		}
		if got != uint16(ch)*100 {
			t.Errorf("Convert(%d) = %d, want %d", ch, got, uint16(ch)*100)
		}
	}
}

func TestConvertTimeout(t *testing.T) {
	sim := NewSim()
	cfg := testConfig()
	cfg.ConversionTimeout = time.Millisecond
	c := New(sim, cfg)
	if err := c.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sim.ConversionReads = -1
	if _, err := c.Convert(5); err != ErrConversionTimeout {
		t.Fatalf("Expected ErrConversionTimeout, got %v", err)
	}
}

func TestReinitAfterConversionTimeout(t *testing.T) {
	sim := NewSim()
	cfg := testConfig()
	cfg.ConversionTimeout = time.Millisecond
	c := New(sim, cfg)
	if err := c.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sim.ConversionReads = -1
	if _, err := c.Convert(5); err != ErrConversionTimeout {
		t.Fatalf("Expected ErrConversionTimeout, got %v", err)
	}

	sim.ConversionReads = 2
	if err := c.Init(); err != nil {
		t.Fatalf("Reinit after fault failed: %v", err)
	}
	sim.Sample = 1234
	got, err := c.Convert(5)
	if err != nil {
		t.Fatalf("Convert after reinit failed: %v", err)
	}
	if got != 1234 {
		t.Errorf("Convert after reinit = %d, want 1234", got)
	}
}

func TestConvertProbeBracketsConversion(t *testing.T) {
	sim := NewSim()
	probe := &gpio.FakePin{}
	cfg := testConfig()
	cfg.Probe = probe
	c := New(sim, cfg)
	if err := c.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := c.Convert(5); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(probe.Levels) != 2 || !probe.Levels[0] || probe.Levels[1] {
		t.Errorf("Probe levels = %v, want [true false]", probe.Levels)
	}
}

func TestReadRawUsesConfiguredChannel(t *testing.T) {
	sim := NewSim()
	cfg := testConfig()
	cfg.Channel = 7
	c := New(sim, cfg)
	if err := c.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sim.SampleFunc = func(ch uint8) uint16 { return uint16(ch) * 100 }
	got, err := c.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	if got != 700 {
		t.Errorf("ReadRaw = %d, want 700", got)
	}
}
