// adcstream-sim runs the sampling loop against the simulated
// converter and writes the framed stream to stdout, a file, or a
// serial device, for exercising host tooling without hardware on the
// bench.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"adcstream/adc"
	"adcstream/host/serial"
	"adcstream/stream"
)

var (
	output  = flag.String("output", "-", "output path, - for stdout")
	device  = flag.String("device", "", "serial device to stream to instead of -output")
	rate    = flag.Uint("rate", 100, "sample rate in hertz")
	channel = flag.Uint("channel", 5, "converter channel")
	count   = flag.Uint64("count", 0, "frames to emit, 0 for unlimited")
	wave    = flag.String("wave", "ramp", "sample pattern: ramp or fixed")
	value   = flag.Uint("value", 2048, "sample value for -wave fixed")
)

func main() {
	flag.Parse()

	var out io.Writer = os.Stdout
	switch {
	case *device != "":
		port, err := serial.Open(serial.DefaultConfig(*device))
		if err != nil {
			log.Fatalf("adcstream-sim: %v", err)
		}
		defer port.Close()
		out = port
	case *output != "-":
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("adcstream-sim: %v", err)
		}
		defer f.Close()
		out = f
	}

	sim := adc.NewSim()
	switch *wave {
	case "fixed":
		sim.Sample = uint16(*value)
	case "ramp":
		next := uint16(0)
		sim.SampleFunc = func(uint8) uint16 {
			v := next
			next = (next + 1) & 0x0FFF
			return v
		}
	default:
		log.Fatalf("adcstream-sim: unknown wave %q", *wave)
	}

	cfg := adc.DefaultConfig()
	cfg.Channel = uint8(*channel)
	conv := adc.New(sim, cfg)
	if err := conv.Init(); err != nil {
		log.Fatalf("adcstream-sim: converter init: %v", err)
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	st, err := stream.New(stream.Config{
		Source:     conv,
		Sink:       w,
		SampleRate: uint32(*rate),
		MaxFrames:  *count,
		Flush:      w.Flush,
	})
	if err != nil {
		log.Fatalf("adcstream-sim: %v", err)
	}
	if err := st.Run(context.Background()); err != nil {
		log.Fatalf("adcstream-sim: %v", err)
	}
	fmt.Fprintf(os.Stderr, "emitted %d frames\n", st.Frames())
}
