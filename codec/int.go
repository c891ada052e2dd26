package codec

import "bytes"

// intField implements every fixed-width signed/unsigned integer kind. size
// is the width in bytes (1, 2, 4 or 8); read/write close over the concrete
// Go type via ptr so one implementation serves Int8..Uint64.
type intField struct {
	size  int
	write func(buf *bytes.Buffer, end Endianness)
	read  func(r *Reader, end Endianness) error

	override *Endianness
}

func (f *intField) Prepare() error { return nil }

func (f *intField) Encode(buf *bytes.Buffer, end Endianness) error {
	f.write(buf, resolve(f.override, end))
	return nil
}

func (f *intField) Decode(r *Reader, end Endianness) error {
	if err := f.read(r, resolve(f.override, end)); err != nil {
		return err
	}
	r.Off += f.size
	return nil
}

func putUint(buf *bytes.Buffer, end Endianness, size int, v uint64) {
	b := make([]byte, size)
	order := end.byteOrder()
	switch size {
	case 1:
		b[0] = byte(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	}
	buf.Write(b)
}

func getUint(r *Reader, end Endianness, size int) (uint64, error) {
	b, err := r.Slice(size)
	if err != nil {
		return 0, err
	}
	order := end.byteOrder()
	switch size {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(order.Uint16(b)), nil
	case 4:
		return uint64(order.Uint32(b)), nil
	case 8:
		return order.Uint64(b), nil
	}
	return 0, NewDecodeError("int", "unsupported width %d", size)
}

// Uint8 et al. construct a Field bound to ptr. Endianness override, if any,
// must be supplied via WithEndianness before use (big-endian single bytes
// ignore it anyway).

func Uint8(ptr *uint8) Field { return newUint(ptr, 1) }
func Uint16(ptr *uint16) Field { return newUint(ptr, 2) }
func Uint32(ptr *uint32) Field { return newUint(ptr, 4) }
func Uint64(ptr *uint64) Field { return newUint(ptr, 8) }

func Int8(ptr *int8) Field   { return newInt(ptr, 1) }
func Int16(ptr *int16) Field { return newInt(ptr, 2) }
func Int32(ptr *int32) Field { return newInt(ptr, 4) }
func Int64(ptr *int64) Field { return newInt(ptr, 8) }

func newUint[T ~uint8 | ~uint16 | ~uint32 | ~uint64](ptr *T, size int) Field {
	return &intField{
		size: size,
		write: func(buf *bytes.Buffer, end Endianness) {
			putUint(buf, end, size, uint64(*ptr))
		},
		read: func(r *Reader, end Endianness) error {
			v, err := getUint(r, end, size)
			if err != nil {
				return err
			}
			*ptr = T(v)
			return nil
		},
	}
}

func newInt[T ~int8 | ~int16 | ~int32 | ~int64](ptr *T, size int) Field {
	return &intField{
		size: size,
		write: func(buf *bytes.Buffer, end Endianness) {
			putUint(buf, end, size, uint64(*ptr))
		},
		read: func(r *Reader, end Endianness) error {
			v, err := getUint(r, end, size)
			if err != nil {
				return err
			}
			*ptr = T(v)
			return nil
		},
	}
}

// WithEndianness pins a field to a specific byte order regardless of the
// packet's declared endianness, matching fields like SystemMessage's
// always-little-endian sub-protocol header.
func WithEndianness(f Field, end Endianness) Field {
	if ef, ok := f.(*intField); ok {
		e := end
		ef.override = &e
	}
	return f
}
