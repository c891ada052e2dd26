package codec

// LengthRef is a live reference to a sibling field that holds another
// field's byte length, element count, or union tag. Fields that depend on
// a sibling (length-of, count-of, tag-of) capture one of these at
// construction time, bound directly to the sibling's Go storage via a
// pointer closure — there is no string-keyed lookup at encode/decode time.
type LengthRef struct {
	Get func() int
	Set func(int)
}

func Uint8Ref(ptr *uint8) LengthRef {
	return LengthRef{
		Get: func() int { return int(*ptr) },
		Set: func(v int) { *ptr = uint8(v) },
	}
}

func Uint16Ref(ptr *uint16) LengthRef {
	return LengthRef{
		Get: func() int { return int(*ptr) },
		Set: func(v int) { *ptr = uint16(v) },
	}
}

func Uint32Ref(ptr *uint32) LengthRef {
	return LengthRef{
		Get: func() int { return int(*ptr) },
		Set: func(v int) { *ptr = uint32(v) },
	}
}

// IntRef adapts a plain int, useful when the sibling is a constant or a
// value owned outside the packet struct (e.g. shared state a caller
// threads through a constructor).
func IntRef(ptr *int) LengthRef {
	return LengthRef{
		Get: func() int { return *ptr },
		Set: func(v int) { *ptr = v },
	}
}
