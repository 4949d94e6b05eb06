package mavlink

import (
	"embed"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

//go:embed dialects/*.csv
var embeddedDialects embed.FS

// SeedTable maps every message id to the one-byte checksum seed its dialect
// assigns. Ids the dialect does not define stay zero, which keeps lookups
// total: an unknown message id degrades the checksum comparison, never the
// framing.
type SeedTable [256]byte

// Seed returns the checksum seed byte for a message id.
func (t *SeedTable) Seed(id byte) byte {
	return t[id]
}

// LoadEmbeddedSeedTable loads the built-in ArduPilotMega dialect table.
func LoadEmbeddedSeedTable() (*SeedTable, error) {
	file, err := embeddedDialects.Open("dialects/ardupilotmega.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded dialect file: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded CSV: %v", err)
	}

	return parseSeedRecords(records)
}

// DefaultSeedTable returns the built-in dialect table.
func DefaultSeedTable() *SeedTable {
	table, err := LoadEmbeddedSeedTable()
	if err != nil {
		// Return empty table if embedded loading fails (shouldn't happen in normal operation)
		return &SeedTable{}
	}
	return table
}

// LoadSeedTableFile loads a dialect seed table from a CSV file on disk,
// replacing the built-in dialect. Message ids absent from the file keep a
// zero seed.
func LoadSeedTableFile(path string) (*SeedTable, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".csv" {
		return nil, fmt.Errorf("seed table file must have .csv extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat seed table file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("seed table file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed table file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read seed table CSV: %v", err)
	}

	return parseSeedRecords(records)
}

// parseSeedRecords parses seed table records (shared by file and embedded loading)
func parseSeedRecords(records [][]string) (*SeedTable, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("insufficient data in seed table file")
	}

	// Validate header
	header := records[0]
	if len(header) != 2 ||
		strings.ToLower(header[0]) != "message_id" ||
		strings.ToLower(header[1]) != "seed" {
		return nil, fmt.Errorf("invalid header in seed table file, expected: message_id,seed")
	}

	table := &SeedTable{}
	for i, record := range records[1:] {
		if len(record) != 2 {
			return nil, fmt.Errorf("invalid record at line %d: expected 2 fields", i+2)
		}

		id, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid message id at line %d: %v", i+2, err)
		}
		if id < 0 || id > 255 {
			return nil, fmt.Errorf("message id %d out of range (0-255) at line %d", id, i+2)
		}

		seed, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("invalid seed at line %d: %v", i+2, err)
		}
		if seed < 0 || seed > 255 {
			return nil, fmt.Errorf("seed %d out of range (0-255) at line %d", seed, i+2)
		}

		table[id] = byte(seed)
	}

	return table, nil
}
