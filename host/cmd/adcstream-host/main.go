// adcstream-host attaches to a sampler's serial stream and prints the
// decoded samples. Link and output settings come from flags, the
// ADCSTREAM_ environment, or adcstream.json, in that order.
package main

import (
	"fmt"
	"io"
	"log"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"

	"adcstream/host/capture"
	"adcstream/host/serial"
)

func main() {
	cfg := loadConfig()
	device := cfg.MustGet("device").String()
	vref := uint32(cfg.MustGet("vref").Int())
	count := uint64(cfg.MustGet("count").Int())
	format := cfg.MustGet("format").String()
	if format != "plain" && format != "csv" {
		log.Fatalf("adcstream-host: unknown format %q", format)
	}

	scfg := serial.DefaultConfig(device)
	scfg.Baud = cfg.MustGet("baud").Int()
	sess, err := capture.OpenWithConfig(scfg)
	if err != nil {
		log.Fatalf("adcstream-host: %v", err)
	}
	defer sess.Close()

	if format == "csv" {
		fmt.Println("index,raw,millivolts")
	}
	var n uint64
	for count == 0 || n < count {
		raw, err := sess.Next()
		if err != nil {
			if err != io.EOF {
				log.Printf("adcstream-host: stream error: %v", err)
			}
			break
		}
		mv := capture.Millivolts(raw, vref)
		if format == "csv" {
			fmt.Printf("%d,%d,%d\n", n, raw, mv)
		} else {
			fmt.Printf("%8d  raw %4d  %4d mV\n", n, raw, mv)
		}
		n++
	}
	log.Printf("adcstream-host: captured %d frames, skipped %d bytes",
		sess.Frames(), sess.Skipped())
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"device": "/dev/ttyACM0",
		"baud":   115200,
		"vref":   3300, // full-scale reference in millivolts
		"count":  0,    // frames to capture, 0 = until the stream ends
		"format": "plain",
	}
	def := dict.New(dict.WithMap(defaultConfig))
	cfg := config.New(
		pflag.New(pflag.WithFlags(
			[]pflag.Flag{{Short: 'c', Name: "config-file"}})),
		env.New(env.WithEnvPrefix("ADCSTREAM_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "adcstream.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}
