package ffi

// ExportInto copies as many of items into buf as fit and reports the
// total count, mirroring export_importers(buffer, cap) -> count: the
// host passes a buffer of some capacity, the plugin writes min(cap,
// len(items)) entries and returns len(items) regardless, so a host whose
// buffer was too small knows to reallocate to the returned count and
// call again.
func ExportInto[T any](items []T, buf []T) (count int) {
	n := len(items)
	if n > len(buf) {
		n = len(buf)
	}
	copy(buf[:n], items[:n])
	return len(items)
}

// NeedsRegrow reports whether a host must grow its buffer and re-invoke
// export after seeing count returned against a buffer of the given
// capacity.
func NeedsRegrow(count, cap int) bool { return count > cap }
