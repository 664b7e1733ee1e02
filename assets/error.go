package assets

import (
	"errors"
	"fmt"

	"github.com/riftcache/assets/id"
)

// Error is the single shareable, cheaply-cloneable error value spec.md §7
// requires: one instance is stored in a terminal cache entry and handed
// out, unchanged, to every concurrent and future awaiter (no re-decode,
// re-source, or re-build).
//
// It wraps any concrete error (a source error, a decode error, a build
// error, or NotFound) behind a stable type so callers can use errors.As
// to recover the concrete kind, rather than forcing callers to parse
// strings.
type Error struct {
	cause error
}

// NewError wraps cause as a shareable Error. cause is typically one of
// *NotFoundError, *SourceError, *DecodeError or *BuildError, but any error
// is accepted.
func NewError(cause error) *Error {
	return &Error{cause: cause}
}

func (e *Error) Error() string { return e.cause.Error() }

// Unwrap enables errors.As/errors.Is to reach the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is also an *Error wrapping an equal cause, or
// delegates to errors.Is on the wrapped cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return errors.Is(e.cause, other.cause)
	}
	return errors.Is(e.cause, target)
}

// NotFoundError reports that no source had the requested key.
type NotFoundError struct {
	// Path is the path used to search for the asset; nil if requested by
	// AssetID directly.
	Path *string
	// ID is the asset identifier; nil if requested by path and the path
	// was never resolved to an id.
	ID *id.AssetID
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Path == nil && e.ID == nil:
		return "assets: failed to load an asset with neither id nor path"
	case e.Path != nil && e.ID == nil:
		return fmt.Sprintf("assets: failed to load asset %q", *e.Path)
	case e.Path == nil && e.ID != nil:
		return fmt.Sprintf("assets: failed to load asset %s", e.ID)
	default:
		return fmt.Sprintf("assets: failed to load asset %s @ %q", e.ID, *e.Path)
	}
}

// SourceError wraps an error returned verbatim by a Source (spec.md §4.1:
// "errors are not swallowed by try next").
type SourceError struct {
	SourceIndex int
	Cause       error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("assets: source[%d]: %v", e.SourceIndex, e.Cause)
}
func (e *SourceError) Unwrap() error { return e.Cause }

// DecodeError wraps a failure from an asset's decoder, tagged with the
// asset type name and (for composite assets) the failing field's name.
type DecodeError struct {
	AssetType string
	Field     string // empty unless the failure came from a composite field
	Cause     error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("assets: decode %s: %v", e.AssetType, e.Cause)
	}
	return fmt.Sprintf("assets: decode %s.%s: %v", e.AssetType, e.Field, e.Cause)
}
func (e *DecodeError) Unwrap() error { return e.Cause }

// BuildError wraps a failure from an asset's builder, tagged the same way
// as DecodeError.
type BuildError struct {
	AssetType string
	Field     string
	Cause     error
}

func (e *BuildError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("assets: build %s: %v", e.AssetType, e.Cause)
	}
	return fmt.Sprintf("assets: build %s.%s: %v", e.AssetType, e.Field, e.Cause)
}
func (e *BuildError) Unwrap() error { return e.Cause }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsBuildError reports whether err is (or wraps) a BuildError.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

// IsSourceError reports whether err is (or wraps) a SourceError.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}
