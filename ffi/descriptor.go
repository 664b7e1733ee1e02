package ffi

import (
	"fmt"
)

// Descriptor is the data an importer plugin exports about itself: its
// name, the formats it accepts, the target format it produces, and the
// file extensions that should route to it. It carries the same fields
// as a C ABI importer descriptor minus its two function pointers, which
// have no meaning without an actual cgo boundary.
type Descriptor struct {
	Name       string
	Formats    []string
	Target     string
	Extensions []string
}

// Validate checks the field-length and NUL-byte constraints the fixed-
// width wire encoding requires.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("ffi: importer name must not be empty")
	}
	if len(d.Name) > MaxNameLen {
		return fmt.Errorf("ffi: importer name %q exceeds %d bytes", d.Name, MaxNameLen)
	}
	if containsNUL(d.Name) {
		return fmt.Errorf("ffi: importer name %q contains a NUL byte", d.Name)
	}
	if len(d.Formats) == 0 {
		return fmt.Errorf("ffi: importer %q declares no formats", d.Name)
	}
	if len(d.Formats) > MaxFormatsCount {
		return fmt.Errorf("ffi: importer %q declares %d formats, limit is %d", d.Name, len(d.Formats), MaxFormatsCount)
	}
	for _, f := range d.Formats {
		if len(f) > MaxNameLen {
			return fmt.Errorf("ffi: format %q exceeds %d bytes", f, MaxNameLen)
		}
		if containsNUL(f) {
			return fmt.Errorf("ffi: format %q contains a NUL byte", f)
		}
	}
	if d.Target == "" {
		return fmt.Errorf("ffi: importer %q declares no target format", d.Name)
	}
	if len(d.Target) > MaxNameLen {
		return fmt.Errorf("ffi: target %q exceeds %d bytes", d.Target, MaxNameLen)
	}
	if containsNUL(d.Target) {
		return fmt.Errorf("ffi: target %q contains a NUL byte", d.Target)
	}
	if len(d.Extensions) > MaxExtensionCount {
		return fmt.Errorf("ffi: importer %q declares %d extensions, limit is %d", d.Name, len(d.Extensions), MaxExtensionCount)
	}
	for _, e := range d.Extensions {
		if len(e) > MaxExtensionLen {
			return fmt.Errorf("ffi: extension %q exceeds %d bytes", e, MaxExtensionLen)
		}
		if containsNUL(e) {
			return fmt.Errorf("ffi: extension %q contains a NUL byte", e)
		}
	}
	return nil
}

func containsNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}

// putFixed writes s into a NUL-padded array of the given width. Callers
// must validate lengths first; putFixed panics on overflow rather than
// silently truncating a name.
func putFixed(dst []byte, s string) {
	if len(s) > len(dst) {
		panic(fmt.Sprintf("ffi: %q overflows a %d-byte field", s, len(dst)))
	}
	copy(dst, s)
	for i := len(s); i < len(dst); i++ {
		dst[i] = 0
	}
}

// getFixed reads a NUL-padded fixed-width field back into a string,
// trimming at the first NUL byte (or the full width, if unpadded).
func getFixed(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

// EncodeName fixed-width encodes a single ≤64-byte name/target field.
func EncodeName(s string) ([MaxNameLen]byte, error) {
	var out [MaxNameLen]byte
	if len(s) > MaxNameLen {
		return out, fmt.Errorf("ffi: %q exceeds %d bytes", s, MaxNameLen)
	}
	if containsNUL(s) {
		return out, fmt.Errorf("ffi: %q contains a NUL byte", s)
	}
	putFixed(out[:], s)
	return out, nil
}

// DecodeName reverses EncodeName.
func DecodeName(buf [MaxNameLen]byte) string { return getFixed(buf[:]) }

// Encode lays out d as the fixed-width byte record a plugin host reads
// directly off an ImporterFFI-shaped buffer: name, up to
// MaxFormatsCount formats, target, then up to MaxExtensionCount
// extensions, each field NUL-padded to its declared width.
func (d Descriptor) Encode() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, MaxNameLen+MaxFormatsCount*MaxNameLen+MaxNameLen+MaxExtensionCount*MaxExtensionLen)
	off := 0

	putFixed(buf[off:off+MaxNameLen], d.Name)
	off += MaxNameLen

	for i := 0; i < MaxFormatsCount; i++ {
		if i < len(d.Formats) {
			putFixed(buf[off:off+MaxNameLen], d.Formats[i])
		}
		off += MaxNameLen
	}

	putFixed(buf[off:off+MaxNameLen], d.Target)
	off += MaxNameLen

	for i := 0; i < MaxExtensionCount; i++ {
		if i < len(d.Extensions) {
			putFixed(buf[off:off+MaxExtensionLen], d.Extensions[i])
		}
		off += MaxExtensionLen
	}

	return buf, nil
}

// DescriptorSize is the byte length Encode always produces.
const DescriptorSize = MaxNameLen + MaxFormatsCount*MaxNameLen + MaxNameLen + MaxExtensionCount*MaxExtensionLen

// DecodeDescriptor reverses Encode. Unused format/extension slots (all
// zero bytes) are dropped rather than returned as empty strings.
func DecodeDescriptor(buf []byte) (Descriptor, error) {
	if len(buf) != DescriptorSize {
		return Descriptor{}, fmt.Errorf("ffi: descriptor buffer is %d bytes, want %d", len(buf), DescriptorSize)
	}
	var d Descriptor
	off := 0

	d.Name = getFixed(buf[off : off+MaxNameLen])
	off += MaxNameLen

	for i := 0; i < MaxFormatsCount; i++ {
		f := getFixed(buf[off : off+MaxNameLen])
		off += MaxNameLen
		if f != "" {
			d.Formats = append(d.Formats, f)
		}
	}

	d.Target = getFixed(buf[off : off+MaxNameLen])
	off += MaxNameLen

	for i := 0; i < MaxExtensionCount; i++ {
		e := getFixed(buf[off : off+MaxExtensionLen])
		off += MaxExtensionLen
		if e != "" {
			d.Extensions = append(d.Extensions, e)
		}
	}

	return d, nil
}
