package ffi

import "testing"

func TestRequiresEncodeDecodeRoundTrip(t *testing.T) {
	sources := []string{"textures/diffuse.png", "textures/normal.png"}
	deps := []Dependency{
		{Source: "materials/metal.mat", Target: "mesh/hull"},
		{Source: "materials/glass.mat", Target: "mesh/window"},
	}

	buf := EncodeRequires(sources, deps)
	if len(buf) != RequiresSize(sources, deps) {
		t.Fatalf("EncodeRequires produced %d bytes, RequiresSize said %d", len(buf), RequiresSize(sources, deps))
	}

	gotSources, gotDeps, err := DecodeRequires(buf)
	if err != nil {
		t.Fatalf("DecodeRequires: %v", err)
	}
	if len(gotSources) != len(sources) {
		t.Fatalf("sources len = %d, want %d", len(gotSources), len(sources))
	}
	for i := range sources {
		if gotSources[i] != sources[i] {
			t.Fatalf("sources[%d] = %q, want %q", i, gotSources[i], sources[i])
		}
	}
	if len(gotDeps) != len(deps) {
		t.Fatalf("deps len = %d, want %d", len(gotDeps), len(deps))
	}
	for i := range deps {
		if gotDeps[i] != deps[i] {
			t.Fatalf("deps[%d] = %+v, want %+v", i, gotDeps[i], deps[i])
		}
	}
}

func TestRequiresEncodeEmpty(t *testing.T) {
	buf := EncodeRequires(nil, nil)
	sources, deps, err := DecodeRequires(buf)
	if err != nil {
		t.Fatalf("DecodeRequires: %v", err)
	}
	if len(sources) != 0 || len(deps) != 0 {
		t.Fatalf("expected empty round trip, got sources=%v deps=%v", sources, deps)
	}
}

func TestDecodeRequiresRejectsTruncatedBuffer(t *testing.T) {
	buf := EncodeRequires([]string{"a"}, nil)
	if _, _, err := DecodeRequires(buf[:len(buf)-1]); err == nil {
		t.Fatal("DecodeRequires must reject a truncated buffer")
	}
}
