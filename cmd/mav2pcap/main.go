package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gopacket/layers"

	"github.com/banshee-data/mavcap/internal/capture"
	"github.com/banshee-data/mavcap/internal/convert"
	"github.com/banshee-data/mavcap/internal/mavlink"
	"github.com/banshee-data/mavcap/internal/telemetry"
)

var (
	inFile    = flag.String("in", "", "Telemetry log file to convert")
	outFile   = flag.String("out", "", "Capture file to write")
	portName  = flag.String("port", "", "Serial port to capture from instead of -in")
	baudRate  = flag.Int("baud", telemetry.DefaultBaudRate, "Serial baud rate")
	duration  = flag.Duration("duration", 0, "Stop a serial capture after this long (0 waits for interrupt)")
	seedsFile = flag.String("seeds", "", "Dialect seed table CSV (default: embedded ArduPilotMega)")
	writeJunk = flag.Bool("junk", true, "Write junk fragments to the capture")
	linkType  = flag.Int("linktype", int(capture.DefaultLinkType), "Capture file link type")
	verbose   = flag.Bool("v", false, "Log each classified unit")
)

func main() {
	flag.Parse()

	if *outFile == "" {
		log.Fatal("Output file is required")
	}
	if *inFile == "" && *portName == "" {
		log.Fatal("One of -in or -port is required")
	}
	if *inFile != "" && *portName != "" {
		log.Fatal("-in and -port are mutually exclusive")
	}

	cfg := convert.DefaultConfig()
	cfg.WriteJunk = *writeJunk
	cfg.Verbose = *verbose
	cfg.LinkType = layers.LinkType(*linkType)

	if *seedsFile != "" {
		table, err := mavlink.LoadSeedTableFile(*seedsFile)
		if err != nil {
			log.Fatalf("Failed to load seed table: %v", err)
		}
		cfg.Table = table
	}

	var stats mavlink.Stats
	var err error
	if *inFile != "" {
		stats, err = convert.ConvertFile(*inFile, *outFile, cfg)
	} else {
		stats, err = captureAndConvert(cfg)
	}
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	fmt.Println(stats.Summary())
}

// captureAndConvert records serial traffic until interrupt or -duration,
// then converts the recorded buffer exactly like a file.
func captureAndConvert(cfg convert.Config) (mavlink.Stats, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	port, err := telemetry.Open(telemetry.Config{PortName: *portName, BaudRate: *baudRate})
	if err != nil {
		return mavlink.Stats{}, err
	}
	defer port.Close()

	log.Printf("capturing from %s (interrupt to finish)", port.Name())

	var raw bytes.Buffer
	n, err := port.Capture(ctx, &raw)
	if err != nil {
		return mavlink.Stats{}, err
	}
	log.Printf("captured %d bytes", n)

	out, err := os.Create(*outFile)
	if err != nil {
		return mavlink.Stats{}, fmt.Errorf("failed to create output file: %w", err)
	}

	w, err := capture.NewWriter(out, cfg.SnapLen, cfg.LinkType)
	if err != nil {
		out.Close()
		return mavlink.Stats{}, err
	}

	stats, err := convert.Convert(raw.Bytes(), w, cfg)
	if closeErr := w.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return stats, err
}
