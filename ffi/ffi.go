// Package ffi implements the importer-plugin wire/ABI data shapes: the
// fixed-width descriptor layout and length-prefixed buffer encodings an
// importer plugin and its host exchange across a C boundary. Only the
// data shapes live here — no cgo, no dynamic-library loading, no plugin
// dispatch; those remain the offline store's concern.
package ffi

// Magic is the u32 a plugin exports to identify itself as an importer
// library, ASCII "TRES" read little-endian.
const Magic uint32 = 'T' | 'R'<<8 | 'E'<<16 | 'S'<<24

// Status codes returned by an import call and by the Sources/Dependencies
// accessor callbacks a plugin is handed.
const (
	StatusRequires       int32 = 1
	StatusSuccess        int32 = 0
	StatusNotFound       int32 = -1
	StatusNotUTF8        int32 = -2
	StatusBufferTooSmall int32 = -3
	StatusOtherError     int32 = -6
)

// Fixed-width limits for an importer descriptor's name fields.
const (
	MaxNameLen        = 64
	MaxFormatsCount   = 32
	MaxExtensionLen   = 16
	MaxExtensionCount = 16
)
