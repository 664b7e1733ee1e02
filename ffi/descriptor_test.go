package ffi

import "testing"

func TestDescriptorEncodeDecodeRoundTrip(t *testing.T) {
	d := Descriptor{
		Name:       "gltf",
		Formats:    []string{"model/gltf+json", "model/gltf-binary"},
		Target:     "mesh",
		Extensions: []string{"gltf", "glb"},
	}

	buf, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != DescriptorSize {
		t.Fatalf("Encode produced %d bytes, want %d", len(buf), DescriptorSize)
	}

	got, err := DecodeDescriptor(buf)
	if err != nil {
		t.Fatalf("DecodeDescriptor: %v", err)
	}
	if got.Name != d.Name || got.Target != d.Target {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, d)
	}
	if len(got.Formats) != len(d.Formats) || got.Formats[0] != d.Formats[0] || got.Formats[1] != d.Formats[1] {
		t.Fatalf("formats mismatch: got %v, want %v", got.Formats, d.Formats)
	}
	if len(got.Extensions) != len(d.Extensions) || got.Extensions[0] != d.Extensions[0] {
		t.Fatalf("extensions mismatch: got %v, want %v", got.Extensions, d.Extensions)
	}
}

func TestDescriptorEncodeRejectsNameTooLong(t *testing.T) {
	long := make([]byte, MaxNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	d := Descriptor{Name: string(long), Formats: []string{"x"}, Target: "y"}
	if _, err := d.Encode(); err == nil {
		t.Fatal("Encode must reject a name longer than MaxNameLen")
	}
}

func TestDescriptorEncodeRejectsEmbeddedNUL(t *testing.T) {
	d := Descriptor{Name: "bad\x00name", Formats: []string{"x"}, Target: "y"}
	if _, err := d.Encode(); err == nil {
		t.Fatal("Encode must reject a name containing a NUL byte")
	}
}

func TestDescriptorEncodeRejectsTooManyFormats(t *testing.T) {
	formats := make([]string, MaxFormatsCount+1)
	for i := range formats {
		formats[i] = "f"
	}
	d := Descriptor{Name: "n", Formats: formats, Target: "y"}
	if _, err := d.Encode(); err == nil {
		t.Fatal("Encode must reject more than MaxFormatsCount formats")
	}
}

func TestDecodeDescriptorRejectsWrongSize(t *testing.T) {
	if _, err := DecodeDescriptor(make([]byte, 3)); err == nil {
		t.Fatal("DecodeDescriptor must reject a buffer of the wrong size")
	}
}

func TestEncodeNameRoundTrip(t *testing.T) {
	buf, err := EncodeName("mesh")
	if err != nil {
		t.Fatalf("EncodeName: %v", err)
	}
	if got := DecodeName(buf); got != "mesh" {
		t.Fatalf("DecodeName = %q, want %q", got, "mesh")
	}
}
