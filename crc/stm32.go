// Package crc implements the STM32 hardware CRC32 used by PutBytes'
// Commit step, and the CRC8 used to hash settings-file keys. Both are
// translated byte-for-byte from the reference implementation; the STM32
// unit processes input one 32-bit little-endian word at a time with a
// zero-padded, byte-reversed partial word at the end, not the common
// byte-wise CRC32 variant.
package crc

// Crc32 computes the STM32 hardware CRC32 of data: init 0xFFFFFFFF,
// polynomial 0x04C11DB7, no final XOR, processed one word at a time.
func Crc32(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	n := len(data)
	full := n / 4 * 4

	for i := 0; i < full; i += 4 {
		word := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		crc = crc32Step(crc, word)
	}

	if rem := n - full; rem > 0 {
		var padded [4]byte
		copy(padded[:], data[full:])
		// The reference zero-pads the trailing bytes at the front (to a
		// full word) and then reverses the whole word; since our zero
		// padding already sits at the end, that's equivalent to reversing
		// only the tail's own bytes in place and leaving the padding
		// where it is.
		for i, j := 0, rem-1; i < j; i, j = i+1, j-1 {
			padded[i], padded[j] = padded[j], padded[i]
		}
		word := uint32(padded[0]) | uint32(padded[1])<<8 | uint32(padded[2])<<16 | uint32(padded[3])<<24
		crc = crc32Step(crc, word)
	}

	return crc
}

func crc32Step(crc, word uint32) uint32 {
	crc ^= word
	for i := 0; i < 32; i++ {
		if crc&0x80000000 != 0 {
			crc = (crc << 1) ^ 0x04C11DB7
		} else {
			crc <<= 1
		}
	}
	return crc
}

var crc8Table = [16]uint8{
	0, 47, 94, 113, 188, 147, 226, 205,
	87, 120, 9, 38, 235, 196, 181, 154,
}

// Crc8 is the nibble-table CRC8 used to hash settings-file record keys. It
// walks the input from the last byte to the first, high nibble before low
// nibble within each byte.
func Crc8(data []byte) uint8 {
	var crc uint8
	n := len(data)
	for i := 0; i < n*2; i++ {
		nibble := data[n-(i/2)-1]
		if i%2 == 0 {
			nibble >>= 4
		}
		index := nibble ^ (crc >> 4)
		crc = crc8Table[index&0x0F] ^ ((crc << 4) & 0xF0)
	}
	return crc
}
