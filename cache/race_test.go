package cache

import (
	"sync"
	"testing"

	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/internal/key"
)

// TestRaceManyKeysManyGoroutines exercises GetOrCreate/BeginBuild/
// TransitionReady concurrently across many distinct keys and shards; run
// with `go test -race` to catch any shard-lock/decodedMu misuse.
func TestRaceManyKeysManyGoroutines(t *testing.T) {
	tab := NewIDTable(16)

	const keys = 200
	const gsPerKey = 8
	var wg sync.WaitGroup
	wg.Add(keys * gsPerKey)
	for k := 0; k < keys; k++ {
		tk := key.TypeKey{Type: fooType, ID: id.AssetID(k + 1)}
		for g := 0; g < gsPerKey; g++ {
			go func(tk key.TypeKey) {
				defer wg.Done()
				e, created := tab.GetOrCreate(tk)
				if created {
					e.TransitionLoaded(42, 1, 0)
				}
				<-e.LoadedSignal()
				if decoded, ok := e.BeginBuild(); ok {
					e.TransitionReady(decoded)
					e.FinishBuild()
				}
				<-e.ReadySignal()
				_ = e.Built
			}(tk)
		}
	}
	wg.Wait()

	if got := tab.Len(); got != keys {
		t.Fatalf("Len() = %d, want %d", got, keys)
	}
}
