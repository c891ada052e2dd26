package codec_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebblekit/pebble2/codec"
)

func encode(t *testing.T, fields []codec.Field, end codec.Endianness) []byte {
	t.Helper()
	for _, f := range fields {
		require.NoError(t, f.Prepare())
	}
	var buf bytes.Buffer
	for _, f := range fields {
		require.NoError(t, f.Encode(&buf, end))
	}
	return buf.Bytes()
}

func decode(t *testing.T, fields []codec.Field, data []byte, end codec.Endianness) *codec.Reader {
	t.Helper()
	r := codec.NewReader(data)
	for _, f := range fields {
		require.NoError(t, f.Decode(r, end))
	}
	return r
}

func TestIntRoundTrip(t *testing.T) {
	var u16 uint16 = 0x1234
	var i32 int32 = -7
	fields := []codec.Field{codec.Uint16(&u16), codec.Int32(&i32)}

	wire := encode(t, fields, codec.BigEndian)
	assert.Equal(t, []byte{0x12, 0x34, 0xFF, 0xFF, 0xFF, 0xF9}, wire)

	var gotU16 uint16
	var gotI32 int32
	decode(t, []codec.Field{codec.Uint16(&gotU16), codec.Int32(&gotI32)}, wire, codec.BigEndian)
	assert.Equal(t, u16, gotU16)
	assert.Equal(t, i32, gotI32)
}

func TestIntLittleEndian(t *testing.T) {
	var v uint32 = 0x01020304
	wire := encode(t, []codec.Field{codec.Uint32(&v)}, codec.LittleEndian)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, wire)
}

func TestBool(t *testing.T) {
	tr, fa := true, false
	wire := encode(t, []codec.Field{codec.Bool(&tr), codec.Bool(&fa)}, codec.BigEndian)
	assert.Equal(t, []byte{1, 0}, wire)
}

func TestUUID(t *testing.T) {
	want := uuid.New()
	wire := encode(t, []codec.Field{codec.UUID(&want)}, codec.BigEndian)
	require.Len(t, wire, 16)

	var got uuid.UUID
	decode(t, []codec.Field{codec.UUID(&got)}, wire, codec.BigEndian)
	assert.Equal(t, want, got)
}

func TestBinaryArrayWithLength(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	var size uint16
	// The length sibling is declared (and so encoded/decoded) before the
	// array it describes, matching how PutBytes-style packets lay out a
	// byte-count field ahead of the payload it sizes.
	fields := []codec.Field{
		codec.Uint16(&size),
		codec.BinaryArrayWithLength(&payload, codec.Uint16Ref(&size)),
	}
	wire := encode(t, fields, codec.BigEndian)
	assert.Equal(t, []byte{0x00, 0x03, 0xAA, 0xBB, 0xCC}, wire)

	var gotSize uint16
	var gotPayload []byte
	decode(t, []codec.Field{
		codec.Uint16(&gotSize),
		codec.BinaryArrayWithLength(&gotPayload, codec.Uint16Ref(&gotSize)),
	}, wire, codec.BigEndian)
	assert.Equal(t, uint16(3), gotSize)
	assert.Equal(t, payload, gotPayload)
}

func TestBinaryArrayFixedAndRest(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	var fixed []byte
	var rest []byte
	r := codec.NewReader(data)
	require.NoError(t, codec.BinaryArrayFixed(&fixed, 2).Decode(r, codec.BigEndian))
	require.NoError(t, codec.BinaryArrayRestOfBuffer(&rest).Decode(r, codec.BigEndian))
	assert.Equal(t, []byte{1, 2}, fixed)
	assert.Equal(t, []byte{3, 4, 5}, rest)
	assert.True(t, r.AtEnd())
}

func TestPascalStringClampsTo255(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	s := string(long)
	wire := encode(t, []codec.Field{codec.PascalString(&s, false)}, codec.BigEndian)
	assert.Equal(t, byte(255), wire[0])
	assert.Len(t, wire, 256)
}

func TestPascalStringNullTerminatedCountsTerminator(t *testing.T) {
	s := "abc"
	wire := encode(t, []codec.Field{codec.PascalString(&s, true)}, codec.BigEndian)
	assert.Equal(t, []byte{4, 'a', 'b', 'c', 0}, wire)

	var got string
	decode(t, []codec.Field{codec.PascalString(&got, true)}, wire, codec.BigEndian)
	assert.Equal(t, "abc", got)
}

func TestPascalStringUncountedTerminatorDoesNotInflateLengthByte(t *testing.T) {
	long := make([]byte, 255)
	for i := range long {
		long[i] = 'x'
	}
	s := string(long)
	wire := encode(t, []codec.Field{codec.PascalStringUncountedTerminator(&s)}, codec.BigEndian)
	assert.Equal(t, byte(255), wire[0])
	assert.Len(t, wire, 257) // length byte + 255 chars + uncounted terminator

	var got string
	decode(t, []codec.Field{codec.PascalStringUncountedTerminator(&got)}, wire, codec.BigEndian)
	assert.Equal(t, s, got)
}

func TestNullTerminatedStringUnterminatedErrors(t *testing.T) {
	var s string
	r := codec.NewReader([]byte{'a', 'b', 'c'})
	err := codec.NullTerminatedString(&s).Decode(r, codec.BigEndian)
	require.Error(t, err)
	assert.Equal(t, 0, r.Off)
}

func TestFixedStringPadsAndTruncates(t *testing.T) {
	s := "hi"
	wire := encode(t, []codec.Field{codec.FixedString(&s, 5)}, codec.BigEndian)
	assert.Equal(t, []byte{'h', 'i', 0, 0, 0}, wire)

	var got string
	decode(t, []codec.Field{codec.FixedString(&got, 5)}, wire, codec.BigEndian)
	assert.Equal(t, "hi", got)

	long := "toolongvalue"
	wire2 := encode(t, []codec.Field{codec.FixedString(&long, 4)}, codec.BigEndian)
	assert.Equal(t, []byte("tool"), wire2)
}

type point struct {
	X uint8
	Y uint8
}

func (p *point) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&p.X), codec.Uint8(&p.Y)}
}

func TestPascalList(t *testing.T) {
	pts := []point{{1, 2}, {3, 4}}
	wire := encode(t, []codec.Field{codec.PascalList(&pts, (*point).Fields)}, codec.BigEndian)
	assert.Equal(t, []byte{2, 1, 2, 2, 3, 4}, wire)

	var got []point
	decode(t, []codec.Field{codec.PascalList(&got, (*point).Fields)}, wire, codec.BigEndian)
	assert.Equal(t, pts, got)
}

func TestFixedListStopsAtFirstLimit(t *testing.T) {
	// Three 2-byte points follow, but byteLength caps consumption at 4
	// bytes (two points) even though count would allow three.
	data := []byte{1, 2, 3, 4, 5, 6}
	count := 3
	byteLen := 4
	var pts []point
	countRef := codec.IntRef(&count)
	lenRef := codec.IntRef(&byteLen)
	r := codec.NewReader(data)
	require.NoError(t, codec.FixedList(&pts, (*point).Fields, &countRef, &lenRef).Decode(r, codec.BigEndian))
	assert.Equal(t, []point{{1, 2}, {3, 4}}, pts)
	assert.Equal(t, 4, r.Off)
}

func TestBitfieldRoundTrip(t *testing.T) {
	var a, b bool
	var c uint8
	flags := codec.Bitfield(8, codec.BitBool(&a), codec.BitBool(&b), codec.BitUint8(6, &c))
	a, b, c = true, false, 0x2A

	wire := encode(t, []codec.Field{flags}, codec.BigEndian)
	// bit0=1, bit1=0, bits2..7 = 0x2A -> value = 1 | (0x2A<<2) = 0xA9
	assert.Equal(t, []byte{0xA9}, wire)

	var ga, gb bool
	var gc uint8
	got := codec.Bitfield(8, codec.BitBool(&ga), codec.BitBool(&gb), codec.BitUint8(6, &gc))
	decode(t, []codec.Field{got}, wire, codec.BigEndian)
	assert.True(t, ga)
	assert.False(t, gb)
	assert.Equal(t, uint8(0x2A), gc)
}

func TestBitfieldSchemaMismatchPanics(t *testing.T) {
	var a bool
	assert.Panics(t, func() {
		codec.Bitfield(8, codec.BitBool(&a))
	})
}

func TestUnionKnownTag(t *testing.T) {
	var tag uint8
	var inner point
	active := true
	u := codec.Union(codec.Uint8Ref(&tag),
		codec.UnionVariant{Tag: 1, Active: func() bool { return active }, Field: &embedFieldStub{&inner}},
	)
	inner = point{X: 9, Y: 8}
	// Prepare (which runs over every field first) sets tag from the
	// active variant before any field's Encode runs, so declaring the tag
	// field ahead of the union produces the realistic wire layout: tag
	// byte, then payload.
	wire := encode(t, []codec.Field{codec.Uint8(&tag), u}, codec.BigEndian)
	assert.Equal(t, []byte{1, 9, 8}, wire)
}

func TestUnionAcceptMissingCapturesUnparsed(t *testing.T) {
	tag := uint8(99)
	var unparsed []byte
	u := codec.UnionAcceptMissing(codec.Uint8Ref(&tag), nil, &unparsed)
	r := codec.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, u.Decode(r, codec.BigEndian))
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, unparsed)
	assert.True(t, r.AtEnd())
}

func TestUnionUnrecognizedTagErrorsWithoutAcceptMissing(t *testing.T) {
	tag := uint8(99)
	u := codec.Union(codec.Uint8Ref(&tag))
	r := codec.NewReader([]byte{1, 2})
	err := u.Decode(r, codec.BigEndian)
	require.Error(t, err)
}

// embedFieldStub adapts a *point into codec.Field for union-variant tests.
type embedFieldStub struct {
	p *point
}

func (e *embedFieldStub) Prepare() error { return nil }
func (e *embedFieldStub) Encode(buf *bytes.Buffer, end codec.Endianness) error {
	for _, f := range e.p.Fields() {
		if err := f.Encode(buf, end); err != nil {
			return err
		}
	}
	return nil
}
func (e *embedFieldStub) Decode(r *codec.Reader, end codec.Endianness) error {
	for _, f := range e.p.Fields() {
		if err := f.Decode(r, end); err != nil {
			return err
		}
	}
	return nil
}

func TestEmbedWithLengthBoundsDecode(t *testing.T) {
	inner := &point{X: 5, Y: 6}
	var size uint8
	data := append([]byte{2}, 5, 6, 0xFF, 0xFF) // trailing bytes beyond the embed's declared length
	r := codec.NewReader(data)
	require.NoError(t, codec.Uint8(&size).Decode(r, codec.BigEndian))

	var got point
	sizeRef := codec.Uint8Ref(&size)
	require.NoError(t, codec.EmbedWithLength(&got, sizeRef).Decode(r, codec.BigEndian))
	assert.Equal(t, *inner, got)
	assert.Equal(t, 2, r.Remaining())
}

func TestEmbedBoundedOverflowErrors(t *testing.T) {
	inner := &point{X: 1, Y: 1}
	_, err := func() ([]byte, error) {
		var buf bytes.Buffer
		f := codec.EmbedBounded(inner, 1)
		if err := f.Prepare(); err != nil {
			return nil, err
		}
		err := f.Encode(&buf, codec.BigEndian)
		return buf.Bytes(), err
	}()
	require.Error(t, err)
}

func TestOptionalAbsentAtEndOfBuffer(t *testing.T) {
	var v uint8
	present := true
	r := codec.NewReader(nil)
	require.NoError(t, codec.Optional(codec.Uint8(&v), &present).Decode(r, codec.BigEndian))
	assert.False(t, present)
}

func TestOptionalPresentWhenBytesRemain(t *testing.T) {
	var v uint8
	present := false
	r := codec.NewReader([]byte{0x42})
	require.NoError(t, codec.Optional(codec.Uint8(&v), &present).Decode(r, codec.BigEndian))
	assert.True(t, present)
	assert.Equal(t, uint8(0x42), v)
}

func TestPaddingRoundTrip(t *testing.T) {
	wire := encode(t, []codec.Field{codec.Padding(3)}, codec.BigEndian)
	assert.Equal(t, []byte{0, 0, 0}, wire)

	r := codec.NewReader([]byte{1, 2, 3})
	require.NoError(t, codec.Padding(3).Decode(r, codec.BigEndian))
	assert.True(t, r.AtEnd())
}
