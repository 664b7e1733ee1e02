package cache

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/internal/key"
)

var fooType = key.TypeTag{RT: reflect.TypeOf(struct{ foo int }{}), Name: "foo"}

func idTypeKey(n uint64) key.TypeKey {
	return key.TypeKey{Type: fooType, ID: id.AssetID(n)}
}

func TestIDTableGetOrCreateSingleProducer(t *testing.T) {
	tab := NewIDTable(4)
	k := idTypeKey(1)

	e1, created1 := tab.GetOrCreate(k)
	e2, created2 := tab.GetOrCreate(k)

	if !created1 {
		t.Fatalf("first GetOrCreate should report created=true")
	}
	if created2 {
		t.Fatalf("second GetOrCreate should report created=false")
	}
	if e1 != e2 {
		t.Fatalf("GetOrCreate must return the same entry for the same key")
	}
	if e1.State != StateUnloaded {
		t.Fatalf("fresh entry must start Unloaded, got %v", e1.State)
	}
}

// TestConcurrentGetOrCreateHasExactlyOneProducer guards P1: for all keys k
// and all concurrent load callers, exactly one of them becomes the
// producer (source chain consulted once).
func TestConcurrentGetOrCreateHasExactlyOneProducer(t *testing.T) {
	tab := NewIDTable(8)
	k := idTypeKey(42)

	const n = 100
	var wg sync.WaitGroup
	producers := make([]bool, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, created := tab.GetOrCreate(k)
			producers[i] = created
		}(i)
	}
	wg.Wait()

	count := 0
	for _, p := range producers {
		if p {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("exactly one goroutine must be the producer, got %d", count)
	}
}

// TestWakersFireExactlyOnce guards P2/I4: every waiter registered while
// Unloaded is woken exactly once when the entry becomes Ready.
func TestWakersFireExactlyOnce(t *testing.T) {
	e := NewIDEntry(&sync.RWMutex{})

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	wakeCounts := make(map[int]int)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			<-e.LoadedSignal()
			<-e.ReadySignal()
			mu.Lock()
			wakeCounts[i]++
			mu.Unlock()
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	e.TransitionLoaded([]byte("decoded"), 1, 0)
	decoded, ok := e.BeginBuild()
	if !ok {
		t.Fatalf("BeginBuild should succeed for the first builder")
	}
	e.TransitionReady(decoded)
	e.FinishBuild()

	wg.Wait()
	for i, c := range wakeCounts {
		if c != 1 {
			t.Fatalf("waiter %d woken %d times, want 1", i, c)
		}
	}
}

// TestBuildOnceUnderConcurrentBuilders guards I3: the decoded cell yields
// its content at most once; the second builder observes Ready.
func TestBuildOnceUnderConcurrentBuilders(t *testing.T) {
	e := NewIDEntry(&sync.RWMutex{})
	e.TransitionLoaded("raw", 1, 0)

	const n = 10
	var built int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			decoded, ok := e.BeginBuild()
			if ok {
				built++
				e.TransitionReady(decoded.(string) + "-built")
				e.FinishBuild()
			}
		}()
	}
	wg.Wait()

	if built != 1 {
		t.Fatalf("build ran %d times, want 1", built)
	}
	if e.State != StateReady {
		t.Fatalf("state = %v, want Ready", e.State)
	}
	if e.Built != "raw-built" {
		t.Fatalf("Built = %v, want %q", e.Built, "raw-built")
	}
}

func TestPathResolveHandoff(t *testing.T) {
	idTab := NewIDTable(4)
	pathTab := NewPathTable(4)

	pk := key.PathKey{Type: fooType, Path: "a/b.png"}
	pe, created := pathTab.GetOrCreate(pk)
	if !created {
		t.Fatalf("expected fresh path entry")
	}

	resolvedID := id.AssetID(7)
	ik := key.TypeKey{Type: fooType, ID: resolvedID}
	idEntry, idCreated := ResolvePath(idTab, ik, pathTab, pk, resolvedID)
	if !idCreated {
		t.Fatalf("expected id entry to be freshly created")
	}
	if idEntry.State != StateUnloaded {
		t.Fatalf("fresh id entry must start Unloaded")
	}

	select {
	case <-pe.ResolvedSignal():
	default:
		t.Fatalf("path entry must be resolved after ResolvePath")
	}
	if pe.State != PathLoaded || pe.ID != resolvedID {
		t.Fatalf("path entry not transitioned correctly: %+v", pe)
	}

	// Re-dispatching through the id table with the same key must observe
	// the same entry the handoff created (P4).
	again, createdAgain := idTab.GetOrCreate(ik)
	if createdAgain {
		t.Fatalf("id entry should already exist from the handoff")
	}
	if again != idEntry {
		t.Fatalf("path-resolved load and direct id load must share one entry")
	}
}
