package assets

import "context"

// Type is spec.md §4.4's Asset contract: a decoded shape D, a built value
// A, and the builder context B threaded through Build (e.g. a GPU device
// or resource registry). Name discriminates per-type lookups on the same
// path (Source.Find takes an asset type name alongside the path).
//
// Go has no generic methods, so a concrete asset type is not a method
// receiver with type parameters; instead a small value implementing this
// interface is handed to Load. Leaf and Trivial below build that value
// for the common cases so most callers never write a Type implementation
// by hand.
type Type[D, A, B any] interface {
	Name() string
	Decode(ctx context.Context, data []byte, loader *Loader) (D, error)
	Build(b B, decoded D) (A, error)
}

// funcType is the adapter every constructor in this file returns.
type funcType[D, A, B any] struct {
	name   string
	decode func(ctx context.Context, data []byte, loader *Loader) (D, error)
	build  func(b B, decoded D) (A, error)
}

func (t funcType[D, A, B]) Name() string { return t.name }

func (t funcType[D, A, B]) Decode(ctx context.Context, data []byte, loader *Loader) (D, error) {
	return t.decode(ctx, data, loader)
}

func (t funcType[D, A, B]) Build(b B, decoded D) (A, error) {
	return t.build(b, decoded)
}

// Of builds a Type from a full async decoder and a builder function. Most
// composite assets generated by a field-aware decoder (see field.go) are
// registered this way.
func Of[D, A, B any](
	name string,
	decode func(ctx context.Context, data []byte, loader *Loader) (D, error),
	build func(b B, decoded D) (A, error),
) Type[D, A, B] {
	return funcType[D, A, B]{name: name, decode: decode, build: build}
}

// Leaf is spec.md §4.4's shortcut for assets that decode synchronously,
// with no loader and no child loads. Build still runs through the
// builder context.
func Leaf[D, A, B any](name string, decode func(data []byte) (D, error), build func(b B, decoded D) (A, error)) Type[D, A, B] {
	return funcType[D, A, B]{
		name: name,
		decode: func(_ context.Context, data []byte, _ *Loader) (D, error) {
			return decode(data)
		},
		build: build,
	}
}

// Trivial collapses decode and build into a single pure byte-to-value
// function: the decoded shape and the built value are the same type, and
// building never fails and never touches the builder context.
func Trivial[A, B any](name string, parse func(data []byte) (A, error)) Type[A, A, B] {
	return funcType[A, A, B]{
		name: name,
		decode: func(_ context.Context, data []byte, _ *Loader) (A, error) {
			return parse(data)
		},
		build: func(_ B, decoded A) (A, error) {
			return decoded, nil
		},
	}
}
