//go:build rp2040 || rp2350

// Firmware entry for the Pico-family sampler: the on-chip converter
// feeds framed samples out UART1 at a fixed cadence.
package main

import (
	"context"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"adcstream/stream"
)

// Board wiring
const (
	baudRate   = 115200
	sampleRate = 100 // frames per second

	adcPin       = machine.ADC0 // GPIO26
	convProbePin = machine.GPIO2
	txProbePin   = machine.GPIO3
)

var uart = uartx.UART1

func main() {
	// UART1 on its default pins (Pico: TX=GP8, RX=GP9).
	if err := uart.Configure(uartx.UARTConfig{
		BaudRate: baudRate,
		TX:       uartx.UART1_TX_PIN,
		RX:       uartx.UART1_RX_PIN,
	}); err != nil {
		faultBlink()
	}

	machine.InitADC()
	src := &picoSource{adc: machine.ADC{Pin: adcPin}}
	if err := src.adc.Configure(machine.ADCConfig{}); err != nil {
		faultBlink()
	}

	convProbe := &machinePin{pin: convProbePin}
	txProbe := &machinePin{pin: txProbePin}
	_ = convProbe.ConfigureOutput(false)
	_ = txProbe.ConfigureOutput(false)
	src.probe = convProbe

	st, err := stream.New(stream.Config{
		Source:     src,
		Sink:       uart,
		SampleRate: sampleRate,
		TxProbe:    txProbe,
	})
	if err != nil {
		faultBlink()
	}

	// Run only returns on a collaborator fault; the context is never
	// canceled on the board.
	_ = st.Run(context.Background())
	faultBlink()
}

// faultBlink parks the firmware flashing the LED.
func faultBlink() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
