package codec

import "bytes"

// BitfieldMember is one LSB-first slice of a bitfield's backing integer.
// The first member declared occupies the low bits.
type BitfieldMember struct {
	Width int
	Get   func() uint64
	Set   func(uint64)
}

func BitBool(ptr *bool) BitfieldMember {
	return BitfieldMember{
		Width: 1,
		Get:   func() uint64 { if *ptr { return 1 }; return 0 },
		Set:   func(v uint64) { *ptr = v != 0 },
	}
}

func BitUint8(width int, ptr *uint8) BitfieldMember {
	return BitfieldMember{
		Width: width,
		Get:   func() uint64 { return uint64(*ptr) },
		Set:   func(v uint64) { *ptr = uint8(v) },
	}
}

func BitUint16(width int, ptr *uint16) BitfieldMember {
	return BitfieldMember{
		Width: width,
		Get:   func() uint64 { return uint64(*ptr) },
		Set:   func(v uint64) { *ptr = uint16(v) },
	}
}

func BitUint32(width int, ptr *uint32) BitfieldMember {
	return BitfieldMember{
		Width: width,
		Get:   func() uint64 { return uint64(*ptr) },
		Set:   func(v uint64) { *ptr = uint32(v) },
	}
}

// bitfieldField composes its members into a single backing word of
// storageBits bits (must be 8, 16 or 32) and reads/writes that word
// directly — it owns the wire bytes itself, there is no separate declared
// storage field.
type bitfieldField struct {
	storageBits int
	members     []BitfieldMember
	shifts      []int
}

// Bitfield panics if the member widths don't sum exactly to storageBits:
// that is a schema bug caught at construction, not a runtime data error.
func Bitfield(storageBits int, members ...BitfieldMember) Field {
	if storageBits != 8 && storageBits != 16 && storageBits != 32 {
		panic("codec: bitfield storage width must be 8, 16 or 32 bits")
	}
	shifts := make([]int, len(members))
	total := 0
	for i, m := range members {
		shifts[i] = total
		total += m.Width
	}
	if total != storageBits {
		panic("codec: bitfield members sum to " + itoa(total) + " bits, want " + itoa(storageBits))
	}
	return &bitfieldField{storageBits: storageBits, members: members, shifts: shifts}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

func (f *bitfieldField) compose() uint64 {
	var v uint64
	for i, m := range f.members {
		mask := uint64(1)<<uint(m.Width) - 1
		v |= (m.Get() & mask) << uint(f.shifts[i])
	}
	return v
}

func (f *bitfieldField) Prepare() error { return nil }

func (f *bitfieldField) Encode(buf *bytes.Buffer, end Endianness) error {
	putUint(buf, end, f.storageBits/8, f.compose())
	return nil
}

func (f *bitfieldField) Decode(r *Reader, end Endianness) error {
	v, err := getUint(r, end, f.storageBits/8)
	if err != nil {
		return err
	}
	r.Off += f.storageBits / 8
	for i, m := range f.members {
		mask := uint64(1)<<uint(m.Width) - 1
		m.Set((v >> uint(f.shifts[i])) & mask)
	}
	return nil
}
