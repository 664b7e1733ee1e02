package ffi

import (
	"encoding/binary"
	"fmt"
)

// Dependency is a (source, target) pair a REQUIRES response names: an
// asset at target that the importer needs to already exist, derived
// from source.
type Dependency struct {
	Source string
	Target string
}

// EncodeRequires lays out a REQUIRES response into the host-supplied
// result buffer: a length-prefixed list of missing source URLs followed
// by a length-prefixed list of (source, target) dependency pairs, every
// length a little-endian u32, matching spec.md's wire format for
// StatusRequires.
func EncodeRequires(missingSources []string, deps []Dependency) []byte {
	size := 4
	for _, s := range missingSources {
		size += 4 + len(s)
	}
	size += 4
	for _, d := range deps {
		size += 4 + len(d.Source) + 4 + len(d.Target)
	}

	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(missingSources)))
	off += 4
	for _, s := range missingSources {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(s)))
		off += 4
		off += copy(buf[off:], s)
	}

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(deps)))
	off += 4
	for _, d := range deps {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(d.Source)))
		off += 4
		off += copy(buf[off:], d.Source)
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(d.Target)))
		off += 4
		off += copy(buf[off:], d.Target)
	}

	return buf
}

// RequiresSize computes the byte length EncodeRequires(missingSources,
// deps) would produce, for a caller sizing the result buffer ahead of a
// StatusBufferTooSmall retry.
func RequiresSize(missingSources []string, deps []Dependency) int {
	size := 4
	for _, s := range missingSources {
		size += 4 + len(s)
	}
	size += 4
	for _, d := range deps {
		size += 4 + len(d.Source) + 4 + len(d.Target)
	}
	return size
}

// DecodeRequires reverses EncodeRequires.
func DecodeRequires(buf []byte) (missingSources []string, deps []Dependency, err error) {
	off := 0
	readU32 := func() (uint32, error) {
		if off+4 > len(buf) {
			return 0, fmt.Errorf("ffi: requires buffer truncated at offset %d", off)
		}
		v := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		return v, nil
	}
	readString := func() (string, error) {
		n, err := readU32()
		if err != nil {
			return "", err
		}
		if off+int(n) > len(buf) {
			return "", fmt.Errorf("ffi: requires buffer truncated reading %d-byte string at offset %d", n, off)
		}
		s := string(buf[off : off+int(n)])
		off += int(n)
		return s, nil
	}

	sourceCount, err := readU32()
	if err != nil {
		return nil, nil, err
	}
	missingSources = make([]string, 0, sourceCount)
	for i := uint32(0); i < sourceCount; i++ {
		s, err := readString()
		if err != nil {
			return nil, nil, err
		}
		missingSources = append(missingSources, s)
	}

	depCount, err := readU32()
	if err != nil {
		return nil, nil, err
	}
	deps = make([]Dependency, 0, depCount)
	for i := uint32(0); i < depCount; i++ {
		source, err := readString()
		if err != nil {
			return nil, nil, err
		}
		target, err := readString()
		if err != nil {
			return nil, nil, err
		}
		deps = append(deps, Dependency{Source: source, Target: target})
	}

	return missingSources, deps, nil
}
