// Package main provides an inspection tool for telemetry capture files.
// It tallies the records of a produced container by classification flag,
// without re-running extraction, and optionally exports the report as JSON
// or persists the run to SQLite.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/mavcap/internal/capture"
	"github.com/banshee-data/mavcap/internal/mavlink"
)

// Config holds configuration for the capture analysis.
type Config struct {
	CaptureFile string
	JSONPath    string
	DBPath      string
	Verbose     bool
}

// ClassTally counts records and bytes for one classification.
type ClassTally struct {
	Records int   `json:"records"`
	Bytes   int64 `json:"bytes"`
}

// Report holds the results of a capture analysis.
type Report struct {
	CaptureFile    string     `json:"capture_file"`
	LinkType       int        `json:"link_type"`
	SnapLen        uint32     `json:"snaplen"`
	Records        int        `json:"records"`
	TotalBytes     int64      `json:"total_bytes"`
	MinIndex       uint32     `json:"min_index"`
	MaxIndex       uint32     `json:"max_index"`
	Valid          ClassTally `json:"valid"`
	ChecksumErrors ClassTally `json:"crc_errors"`
	Junk           ClassTally `json:"junk"`
	Other          ClassTally `json:"other"`
	Summary        string     `json:"summary"`
}

type recordInfo struct {
	Index  uint32
	Flag   byte
	Length int
}

func main() {
	config := parseFlags()

	if config.CaptureFile == "" {
		fmt.Fprintln(os.Stderr, "Error: capture file is required")
		flag.Usage()
		os.Exit(1)
	}

	if _, err := os.Stat(config.CaptureFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: capture file not found: %s\n", config.CaptureFile)
		os.Exit(1)
	}

	report, records, err := analyzeCapture(config)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	printSummary(report)

	if config.JSONPath != "" {
		if err := exportJSON(config.JSONPath, report); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	}

	if config.DBPath != "" {
		if err := persistToDatabase(config.DBPath, report, records); err != nil {
			log.Printf("Warning: database persistence failed: %v", err)
		}
	}
}

func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.CaptureFile, "in", "", "Path to capture file (required)")
	flag.StringVar(&config.JSONPath, "json", "", "Export the report to this JSON file")
	flag.StringVar(&config.DBPath, "db", "", "SQLite database path (optional, for persistence)")
	flag.BoolVar(&config.Verbose, "v", false, "Log every record")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Capture Inspection Tool for Converted Telemetry Streams\n\n")
		fmt.Fprintf(os.Stderr, "Reads a capture container produced by mav2pcap and reports the\n")
		fmt.Fprintf(os.Stderr, "record tallies encoded in its synthetic timestamps.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -in telem.pcap\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -in telem.pcap -json report.json -db runs.db\n", os.Args[0])
	}

	flag.Parse()
	return config
}

func analyzeCapture(config Config) (*Report, []recordInfo, error) {
	f, err := os.Open(config.CaptureFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		CaptureFile: config.CaptureFile,
		LinkType:    int(r.LinkType()),
		SnapLen:     r.Snaplen(),
	}

	var records []recordInfo
	var stats mavlink.Stats

	for {
		rec, err := r.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		length := int64(len(rec.Data))
		class := mavlink.Classification(rec.Flag)

		if config.Verbose {
			log.Printf("record %d: index %d, class %s, %d bytes", report.Records, rec.Index, class, length)
		}

		switch class {
		case mavlink.ClassValid:
			report.Valid.Records++
			report.Valid.Bytes += length
			stats.Valid++
		case mavlink.ClassChecksumError:
			report.ChecksumErrors.Records++
			report.ChecksumErrors.Bytes += length
			stats.ChecksumErrors++
		case mavlink.ClassJunk:
			report.Junk.Records++
			report.Junk.Bytes += length
			stats.Junk++
		default:
			report.Other.Records++
			report.Other.Bytes += length
		}

		if report.Records == 0 || rec.Index < report.MinIndex {
			report.MinIndex = rec.Index
		}
		if rec.Index > report.MaxIndex {
			report.MaxIndex = rec.Index
		}
		report.Records++
		report.TotalBytes += length

		records = append(records, recordInfo{Index: rec.Index, Flag: rec.Flag, Length: int(length)})
	}

	report.Summary = stats.Summary()
	return report, records, nil
}

func printSummary(report *Report) {
	fmt.Println("\n========== Capture Summary ==========")
	fmt.Printf("File: %s\n", report.CaptureFile)
	fmt.Printf("Link type: %d, snaplen: %d\n", report.LinkType, report.SnapLen)
	fmt.Printf("Records: %d (%d bytes)\n", report.Records, report.TotalBytes)
	if report.Records > 0 {
		fmt.Printf("Index range: %d-%d\n", report.MinIndex, report.MaxIndex)
	}
	fmt.Println("\nRecords by Class:")
	fmt.Printf("  ok:        %d (%d bytes)\n", report.Valid.Records, report.Valid.Bytes)
	fmt.Printf("  crc-error: %d (%d bytes)\n", report.ChecksumErrors.Records, report.ChecksumErrors.Bytes)
	fmt.Printf("  junk:      %d (%d bytes)\n", report.Junk.Records, report.Junk.Bytes)
	if report.Other.Records > 0 {
		fmt.Printf("  other:     %d (%d bytes)\n", report.Other.Records, report.Other.Bytes)
	}
	fmt.Println()
	fmt.Println(report.Summary)
	fmt.Println("=====================================")
}

func exportJSON(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	fmt.Printf("JSON report: %s\n", path)
	return nil
}

func persistToDatabase(dbPath string, report *Report, records []recordInfo) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Create tables if they don't exist
	schema := `
		CREATE TABLE IF NOT EXISTS capture_runs (
			run_id TEXT PRIMARY KEY,
			capture_file TEXT NOT NULL,
			analysis_time TEXT NOT NULL,
			link_type INTEGER,
			snaplen INTEGER,
			records INTEGER,
			total_bytes INTEGER,
			valid_records INTEGER,
			crc_error_records INTEGER,
			junk_records INTEGER
		);

		CREATE TABLE IF NOT EXISTS capture_records (
			run_id TEXT,
			position INTEGER,
			record_index INTEGER,
			flag INTEGER,
			length INTEGER,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY (run_id) REFERENCES capture_runs(run_id)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	runID := uuid.New().String()

	_, err = db.Exec(`
		INSERT INTO capture_runs (run_id, capture_file, analysis_time, link_type, snaplen, records, total_bytes, valid_records, crc_error_records, junk_records)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		report.CaptureFile,
		time.Now().Format(time.RFC3339),
		report.LinkType,
		report.SnapLen,
		report.Records,
		report.TotalBytes,
		report.Valid.Records,
		report.ChecksumErrors.Records,
		report.Junk.Records,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, rec := range records {
		_, err := db.Exec(`
			INSERT INTO capture_records (run_id, position, record_index, flag, length)
			VALUES (?, ?, ?, ?, ?)`,
			runID, i, rec.Index, rec.Flag, rec.Length,
		)
		if err != nil {
			log.Printf("Warning: failed to insert record %d: %v", i, err)
		}
	}

	fmt.Printf("Run %s persisted to %s\n", runID, dbPath)
	return nil
}
