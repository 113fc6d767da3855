// Package adc drives a successive-approximation converter of the
// STM32 flavor: deep-power-down and regulator control, offset
// calibration, a ready handshake, and single software-triggered
// conversions read back from a data register.
//
// The driver talks to the peripheral through the Registers interface,
// so the same sequencing runs against memory-mapped hardware or the
// scripted Sim used in tests.
package adc

// Register identifies one 32-bit register of the converter block.
type Register uint8

// Register file layout. RegCLK stands in for the reset-and-clock bits
// that gate the converter; on real silicon they live in a separate
// block, but these two bits are all the driver ever needs from it.
const (
	RegCLK   Register = iota // clock gate and kernel clock select
	RegCCR                   // common control (prescaler)
	RegCR                    // control (enable, calibrate, start)
	RegISR                   // interrupt and status, write one to clear
	RegCFGR                  // configuration (resolution, continuous)
	RegSMPR1                 // sample time, channels 0-9
	RegSMPR2                 // sample time, channels 10-18
	RegSQR1                  // regular sequence length and first entry
	RegDR                    // conversion data
	regCount
)

// Registers is the 32-bit register file of one converter block.
// Implementations must perform the access on every call; the driver
// polls status flags and relies on command-bit side effects.
type Registers interface {
	Read(r Register) uint32
	Write(r Register, v uint32)
}

// RegCLK bits
const (
	CLK_EN     = 1 << 0 // gate the converter's bus and kernel clock
	CLK_SYSSEL = 1 << 1 // run the kernel clock from the system clock
)

// RegCR bits
const (
	CR_ADEN     = 1 << 0  // enable request
	CR_ADDIS    = 1 << 1  // disable request, cleared by hardware
	CR_ADSTART  = 1 << 2  // start regular conversions
	CR_ADVREGEN = 1 << 28 // voltage regulator enable
	CR_DEEPPWD  = 1 << 29 // deep power down
	CR_ADCAL    = 1 << 31 // start calibration, cleared by hardware
)

// RegISR bits
const (
	ISR_ADRDY = 1 << 0 // converter ready for conversions
	ISR_EOC   = 1 << 2 // end of conversion, data register loaded
)

// RegCFGR bits
const (
	CFGR_RES_Pos = 3
	CFGR_RES_Msk = 0x3 << CFGR_RES_Pos // 00 selects 12-bit resolution
	CFGR_CONT    = 1 << 13             // continuous conversion mode
)

// RegSQR1 fields
const (
	SQR1_L_Msk   = 0xF // sequence length minus one
	SQR1_SQ1_Pos = 6
	SQR1_SQ1_Msk = 0x1F << SQR1_SQ1_Pos // first sequence entry
)

// RegCCR fields
const (
	CCR_PRESC_Pos  = 18
	CCR_PRESC_Msk  = 0xF << CCR_PRESC_Pos
	CCR_PRESC_DIV8 = 0x4 // kernel clock divided by 8
)

// Sample-time codes, in converter clock cycles.
const (
	SMP_2_5   = 0x0
	SMP_6_5   = 0x1
	SMP_12_5  = 0x2
	SMP_24_5  = 0x3
	SMP_47_5  = 0x4
	SMP_92_5  = 0x5
	SMP_247_5 = 0x6
	SMP_640_5 = 0x7
)

// MaxChannel is the highest input channel the sequencer can address.
const MaxChannel = 18

// dataMask keeps the 12 magnitude bits of the data register.
const dataMask = 0x0FFF

// smprField locates the 3-bit sample-time field for a channel.
func smprField(channel uint8) (Register, uint32) {
	if channel < 10 {
		return RegSMPR1, uint32(channel) * 3
	}
	return RegSMPR2, uint32(channel-10) * 3
}
