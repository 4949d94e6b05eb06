package mavlink

// X25 returns the CRC-16/X.25 checksum of data: polynomial 0x1021 reflected,
// initial value 0xFFFF, no final inversion. This is the accumulator MAVLink
// uses for frame checksums.
func X25(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = x25Accumulate(crc, b)
	}
	return crc
}

// FrameChecksum returns the checksum for a frame's checked region (every
// header byte after the magic, plus the payload) with the message's dialect
// seed byte folded in as a final accumulation step.
func FrameChecksum(region []byte, seed byte) uint16 {
	return x25Accumulate(X25(region), seed)
}

func x25Accumulate(crc uint16, b byte) uint16 {
	tmp := b ^ byte(crc)
	tmp ^= tmp << 4
	return (crc >> 8) ^ (uint16(tmp) << 8) ^ (uint16(tmp) << 3) ^ (uint16(tmp) >> 4)
}
