package assets

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/source"
)

// Foo is a leaf asset: decode parses a single integer field, build is
// the identity.
type fooValue struct{ Foo int }

var fooAssetType = Leaf[fooValue, fooValue, noBuilder]("Foo",
	func(data []byte) (fooValue, error) {
		var v fooValue
		err := json.Unmarshal(data, &v)
		return v, err
	},
	func(_ noBuilder, decoded fooValue) (fooValue, error) { return decoded, nil },
)

// withFooDecoded is WithFoo's Decoded record: one external Foo field and
// one inlined Bar record that itself carries a nested external Foo
// field, matching spec.md §4.4's field protocol.
type withFooDecoded struct {
	Foo    *Handle[fooValue, fooValue, noBuilder]
	BarFoo *Handle[fooValue, fooValue, noBuilder]
}

type withFooValue struct {
	Foo fooValue
	Bar struct{ Foo fooValue }
}

type withFooWire struct {
	Foo uint64 `json:"foo"`
	Bar struct {
		Foo uint64 `json:"foo"`
	} `json:"bar"`
}

var withFooType = Of[withFooDecoded, withFooValue, noBuilder]("WithFoo",
	func(ctx context.Context, data []byte, loader *Loader) (withFooDecoded, error) {
		var wire withFooWire
		if err := json.Unmarshal(data, &wire); err != nil {
			return withFooDecoded{}, err
		}
		fooID, err := id.New(wire.Foo)
		if err != nil {
			return withFooDecoded{}, err
		}
		barFooID, err := id.New(wire.Bar.Foo)
		if err != nil {
			return withFooDecoded{}, err
		}
		fooHandle, err := DecodeExternal(ctx, loader, fooAssetType, fooID)
		if err != nil {
			return withFooDecoded{}, err
		}
		barFooHandle, err := DecodeExternal(ctx, loader, fooAssetType, barFooID)
		if err != nil {
			return withFooDecoded{}, err
		}
		return withFooDecoded{Foo: fooHandle, BarFoo: barFooHandle}, nil
	},
	func(b noBuilder, decoded withFooDecoded) (withFooValue, error) {
		var out withFooValue
		foo, err := BuildExternal(decoded.Foo, b)
		if err != nil {
			return out, err
		}
		barFoo, err := BuildExternal(decoded.BarFoo, b)
		if err != nil {
			return out, err
		}
		out.Foo = foo
		out.Bar.Foo = barFoo
		return out, nil
	},
)

// S2: a composite asset with one external field and one inlined field
// carrying a nested external reference to the *same* child id. The
// child's source.Load call must happen exactly once.
func TestComposite_ExternalFieldDedup(t *testing.T) {
	src := newFakeSource()
	fooID, err := id.New(1)
	require.NoError(t, err)
	src.byID[fooID] = source.Data{Bytes: []byte(`{"foo":1}`), Version: 1}

	withFooID, err := id.New(2)
	require.NoError(t, err)
	src.byID[withFooID] = source.Data{Bytes: []byte(`{"foo":1,"bar":{"foo":1}}`), Version: 1}
	src.byPath["WithFoo"] = withFooID

	loader := NewLoaderBuilder().WithSources(src).Build()

	h := Load(loader, withFooType, ByPath("WithFoo"))
	value, err := h.AwaitBuild(context.Background(), noBuilder{})
	require.NoError(t, err)

	assert.Equal(t, 1, value.Foo.Foo)
	assert.Equal(t, 1, value.Bar.Foo.Foo)

	assert.Equal(t, int32(2), atomic.LoadInt32(&src.loads), "WithFoo and Foo are each loaded once; the second Foo reference must join the first")
}
