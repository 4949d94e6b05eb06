// Command gen-telem fabricates telemetry log files for testing the
// converter: well-formed frames with optional junk runs and corrupted
// payloads, deterministic under a seed.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/banshee-data/mavcap/internal/mavlink"
)

func main() {
	output := flag.String("o", "telem.bin", "output path")
	frames := flag.Int("n", 100, "number of frames")
	junkEvery := flag.Int("junk-every", 0, "insert a junk run before every k-th frame (0 disables)")
	corruptEvery := flag.Int("corrupt-every", 0, "corrupt the payload of every k-th frame (0 disables)")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	table := mavlink.DefaultSeedTable()

	var stream []byte
	for i := 0; i < *frames; i++ {
		if *junkEvery > 0 && (i+1)%*junkEvery == 0 {
			stream = append(stream, junkRun(rng)...)
		}

		header := mavlink.Header{
			Sequence:    byte(i),
			SystemID:    1,
			ComponentID: 1,
			MessageID:   byte(rng.Intn(256)),
		}
		payload := make([]byte, rng.Intn(33))
		rng.Read(payload)

		frame, err := mavlink.BuildFrame(header, payload, table)
		if err != nil {
			log.Fatalf("Failed to build frame %d: %v", i, err)
		}
		if *corruptEvery > 0 && (i+1)%*corruptEvery == 0 && len(payload) > 0 {
			frame[mavlink.HEADER_SIZE+rng.Intn(len(payload))] ^= 0xFF
		}
		stream = append(stream, frame...)

		if (i+1)%100 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}

	// Trailing sentinel so the final frame has its confirmation byte.
	stream = append(stream, mavlink.FRAME_MAGIC)

	if err := os.WriteFile(*output, stream, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	log.Printf("✓ Created: %s (%d bytes)", *output, len(stream))
}

// junkRun returns a short random run that never contains the sentinel, so
// it classifies as a single junk unit.
func junkRun(rng *rand.Rand) []byte {
	run := make([]byte, 1+rng.Intn(8))
	for i := range run {
		run[i] = byte(rng.Intn(0xFE))
	}
	return run
}
