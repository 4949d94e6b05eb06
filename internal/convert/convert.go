// Package convert drives the extractor-to-container pipeline: raw telemetry
// bytes go in, classified pcap records and run statistics come out.
package convert

import (
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket/layers"

	"github.com/banshee-data/mavcap/internal/capture"
	"github.com/banshee-data/mavcap/internal/mavlink"
)

// Config controls a conversion run.
type Config struct {
	Table     *mavlink.SeedTable // nil selects the embedded default dialect
	WriteJunk bool               // write junk units to the container as well as counting them
	Verbose   bool               // per-unit trace logging
	LinkType  layers.LinkType
	SnapLen   uint32
}

// DefaultConfig returns the standard conversion settings: junk units
// written, embedded dialect, private-use link type.
func DefaultConfig() Config {
	return Config{
		WriteJunk: true,
		LinkType:  capture.DefaultLinkType,
		SnapLen:   capture.DefaultSnapLen,
	}
}

// Convert drains data through the frame extractor into w. Extractor
// outcomes never fail a conversion; sink write errors abort it. Statistics
// cover everything classified up to the point of return, so junk units
// suppressed by WriteJunk are still counted.
func Convert(data []byte, w *capture.Writer, cfg Config) (mavlink.Stats, error) {
	extractor := mavlink.NewExtractor(data, cfg.Table)
	extractor.SetDebug(cfg.Verbose)

	for {
		rec, err := extractor.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extractor.Stats(), fmt.Errorf("failed to extract: %w", err)
		}

		if rec.Class == mavlink.ClassJunk && !cfg.WriteJunk {
			continue
		}
		if err := w.WriteRecord(rec.Seq, byte(rec.Class), rec.Data); err != nil {
			return extractor.Stats(), fmt.Errorf("failed to write record %d: %w", rec.Seq, err)
		}
	}

	return extractor.Stats(), nil
}

// ConvertFile reads inPath fully, converts it, and writes the capture
// container to outPath. Zero-valued container settings fall back to the
// defaults.
func ConvertFile(inPath, outPath string, cfg Config) (mavlink.Stats, error) {
	if cfg.SnapLen == 0 {
		cfg.SnapLen = capture.DefaultSnapLen
	}
	if cfg.LinkType == 0 {
		cfg.LinkType = capture.DefaultLinkType
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return mavlink.Stats{}, fmt.Errorf("failed to read input file: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return mavlink.Stats{}, fmt.Errorf("failed to create output file: %w", err)
	}

	w, err := capture.NewWriter(out, cfg.SnapLen, cfg.LinkType)
	if err != nil {
		out.Close()
		return mavlink.Stats{}, err
	}

	stats, err := Convert(data, w, cfg)
	if closeErr := w.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return stats, err
}
