package assets

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/riftcache/assets/id"
)

// This file implements spec.md §4.4's field protocol: the helpers a
// generated composite decoder calls, once per External field, after it has
// deserialised its Info record. Each helper issues the child Load itself
// and awaits it. An Inlined field needs
// none of this — it is carried as a plain T in both Info and Decoded, so
// the generated code just copies it across.

// DecodeExternal loads a single required External field: id is read from
// Info, the child is loaded through loader, and the call blocks until the
// child is decoded (not built — building happens later, symmetrically,
// when the parent itself is built; see BuildExternal).
//
// The returned *Handle is the field's Decoded-record value, exactly as
// spec.md §4.4 describes ("External field... in Decoded as a
// loaded-but-not-built handle").
func DecodeExternal[D, A, B any](ctx context.Context, loader *Loader, typ Type[D, A, B], childID id.AssetID) (*Handle[D, A, B], error) {
	h := Load(loader, typ, ByID(childID))
	if _, err := h.AwaitLoaded(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// DecodeExternalOptional is DecodeExternal for an Optional<External<T>>
// field: a zero id means the field is absent.
func DecodeExternalOptional[D, A, B any](ctx context.Context, loader *Loader, typ Type[D, A, B], childID id.AssetID) (*Handle[D, A, B], error) {
	if childID.IsZero() {
		return nil, nil
	}
	return DecodeExternal(ctx, loader, typ, childID)
}

// DecodeExternalSlice is DecodeExternal for a Vec<External<T>> field: it
// issues one Load per id and awaits the join of all of them in parallel
// (spec.md §4.4 "the sequence form awaits the join of the children"),
// failing fast on the first child that fails to decode (§4.4's "first
// field to fail decoding cancels the join", generalised here to cancel
// siblings within the same sequence field).
func DecodeExternalSlice[D, A, B any](ctx context.Context, loader *Loader, typ Type[D, A, B], childIDs []id.AssetID) ([]*Handle[D, A, B], error) {
	handles := make([]*Handle[D, A, B], len(childIDs))
	for i, cid := range childIDs {
		handles[i] = Load(loader, typ, ByID(cid))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range handles {
		h := h
		g.Go(func() error {
			_, err := h.AwaitLoaded(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return handles, nil
}

// BuildExternal builds a single External field's child handle, to be
// called from the parent asset's Build method with the same builder
// context the parent itself was built with.
func BuildExternal[D, A, B any](h *Handle[D, A, B], b B) (A, error) {
	var zero A
	if h == nil {
		return zero, nil
	}
	return h.AwaitBuild(context.Background(), b)
}

// BuildExternalSlice builds every child handle in a sequence field,
// stopping at the first build failure (spec.md §4.4 "the first to fail
// building aborts the build").
func BuildExternalSlice[D, A, B any](handles []*Handle[D, A, B], b B) ([]A, error) {
	out := make([]A, len(handles))
	for i, h := range handles {
		v, err := BuildExternal(h, b)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
