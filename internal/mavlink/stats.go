package mavlink

import "fmt"

// Stats tracks classification counts for one extraction run.
type Stats struct {
	Valid          int // frames with a matching checksum
	ChecksumErrors int // well-formed frames whose checksum did not match
	Junk           int // junk units recovered between frames
}

// Classified returns the total number of units the extractor classified.
func (s Stats) Classified() int {
	return s.Valid + s.ChecksumErrors + s.Junk
}

// NoisePercent returns the share of non-valid units (junk plus checksum
// errors) among all classified units, 0-100.
func (s Stats) NoisePercent() float64 {
	total := s.Classified()
	if total == 0 {
		return 0
	}
	return 100.0 * float64(s.Junk+s.ChecksumErrors) / float64(total)
}

// Summary formats the counters as a single human-readable line.
func (s Stats) Summary() string {
	return fmt.Sprintf("converted %d valid packets, %d crc errors, %d junk fragments (total %f%% of junk)",
		s.Valid, s.ChecksumErrors, s.Junk, s.NoisePercent())
}
