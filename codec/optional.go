package codec

import "bytes"

// optionalField wraps another field that may simply not be present on the
// wire — older firmware omitting a trailing value is the common case
// (QemuVibration's trailing state boolean). Decode treats running out of
// buffer as "absent" rather than an error; present reports (and, on
// encode, controls) whether the value was/is there.
type optionalField struct {
	inner   Field
	present *bool
}

func Optional(inner Field, present *bool) Field {
	return &optionalField{inner: inner, present: present}
}

func (f *optionalField) Prepare() error {
	if *f.present {
		return f.inner.Prepare()
	}
	return nil
}

func (f *optionalField) Encode(buf *bytes.Buffer, end Endianness) error {
	if !*f.present {
		return nil
	}
	return f.inner.Encode(buf, end)
}

func (f *optionalField) Decode(r *Reader, end Endianness) error {
	if r.AtEnd() {
		*f.present = false
		return nil
	}
	if err := f.inner.Decode(r, end); err != nil {
		return err
	}
	*f.present = true
	return nil
}
