package reactor

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeDevice records destroyed objects.
type fakeDevice struct {
	mu        sync.Mutex
	destroyed []int
}

func (d *fakeDevice) Destroy(_ Kind, obj int) {
	d.mu.Lock()
	d.destroyed = append(d.destroyed, obj)
	d.mu.Unlock()
}

// gate is a worker switch.
type gate struct{ open atomic.Bool }

func newReactor(t *testing.T) (*Reactor[int], *fakeDevice, *gate, *Worker) {
	t.Helper()
	dev := &fakeDevice{}
	r := New[int](dev)
	g := &gate{}
	w := NewWorker(g.open.Load)
	r.AddWorker(w)
	return r, dev, g, w
}

func TestAddOperationDefersUntilReactable(t *testing.T) {
	r, _, g, w := newReactor(t)
	var ran int
	if !r.AddOperation(func(*Reactor[int]) { ran++ }) {
		t.Fatal("AddOperation() = false")
	}
	if ran != 0 || !r.HasPendingOperations() {
		t.Fatalf("operation ran without a usable worker (ran=%d)", ran)
	}
	if r.React() {
		t.Error("React() = true with a closed worker")
	}

	g.open.Store(true)
	if !r.React() {
		t.Fatal("React() = false with an open worker")
	}
	if ran != 1 || r.HasPendingOperations() {
		t.Errorf("ran = %d, pending = %v, want 1, false", ran, r.HasPendingOperations())
	}
	runtime.KeepAlive(w)
}

func TestAddOperationReactsImmediately(t *testing.T) {
	r, _, g, w := newReactor(t)
	g.open.Store(true)
	var ran bool
	r.AddOperation(func(*Reactor[int]) { ran = true })
	if !ran {
		t.Error("operation did not run on an open worker")
	}
	if r.AddOperation(nil) {
		t.Error("AddOperation(nil) = true")
	}
	runtime.KeepAlive(w)
}

func TestOperationsQueuedDuringReactionRun(t *testing.T) {
	r, _, g, w := newReactor(t)
	g.open.Store(true)
	var order []int
	r.AddOperation(func(r *Reactor[int]) {
		order = append(order, 1)
		r.AddOperation(func(*Reactor[int]) { order = append(order, 2) })
	})
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
	runtime.KeepAlive(w)
}

func TestCollectHandleDestroysOnReaction(t *testing.T) {
	r, dev, g, w := newReactor(t)
	h := r.Adopt(KindTexture, 42)
	r.CollectHandle(h)
	if r.Handles() != 1 {
		t.Errorf("Handles() = %d before a reaction, want 1", r.Handles())
	}
	if len(dev.destroyed) != 0 {
		t.Fatal("object destroyed before a reaction")
	}

	g.open.Store(true)
	r.React()
	if len(dev.destroyed) != 1 || dev.destroyed[0] != 42 {
		t.Errorf("destroyed = %v, want [42]", dev.destroyed)
	}
	if r.Handles() != 0 {
		t.Errorf("Handles() = %d, want 0", r.Handles())
	}
	runtime.KeepAlive(w)
}

func TestAdoptedHandlesOutliveReactions(t *testing.T) {
	r, dev, g, w := newReactor(t)
	g.open.Store(true)
	kept := r.Adopt(KindSampler, 1)
	gone := r.Adopt(KindBuffer, 2)
	if kept.IsDead() || kept.Kind() != KindSampler {
		t.Fatalf("Adopt() = %+v", kept)
	}
	r.CollectHandle(gone)
	r.React()
	r.React()
	if len(dev.destroyed) != 1 || dev.destroyed[0] != 2 {
		t.Errorf("destroyed = %v, want [2]", dev.destroyed)
	}
	if r.Handles() != 1 {
		t.Errorf("Handles() = %d, want 1", r.Handles())
	}
	runtime.KeepAlive(w)
}

func TestUnknownKindIsDead(t *testing.T) {
	r, dev, g, w := newReactor(t)
	g.open.Store(true)
	h := r.Adopt(KindUnknown, 3)
	if !h.IsDead() {
		t.Fatal("Adopt(KindUnknown) is not dead")
	}
	r.CollectHandle(h)
	r.React()
	if len(dev.destroyed) != 0 || r.Handles() != 0 {
		t.Errorf("destroyed = %v, Handles() = %d, want none", dev.destroyed, r.Handles())
	}
	runtime.KeepAlive(w)
}

func TestOperationCollectsHandle(t *testing.T) {
	r, dev, g, w := newReactor(t)
	h := r.Adopt(KindTexture, 9)
	r.AddOperation(func(r *Reactor[int]) { r.CollectHandle(h) })
	if len(dev.destroyed) != 0 {
		t.Fatal("object destroyed before a reaction")
	}
	g.open.Store(true)
	r.React()
	if len(dev.destroyed) != 1 || dev.destroyed[0] != 9 {
		t.Errorf("destroyed = %v, want [9]", dev.destroyed)
	}
	runtime.KeepAlive(w)
}

func TestDeferredCreationAdopts(t *testing.T) {
	r, dev, g, w := newReactor(t)
	var h Handle
	r.AddOperation(func(r *Reactor[int]) { h = r.Adopt(KindTexture, 5) })
	if !h.IsDead() || r.Handles() != 0 {
		t.Fatal("object created before a reaction")
	}
	g.open.Store(true)
	r.React()
	if h.IsDead() || r.Handles() != 1 {
		t.Fatalf("Handles() = %d after the reaction, want 1", r.Handles())
	}
	r.CollectHandle(h)
	r.React()
	if len(dev.destroyed) != 1 || dev.destroyed[0] != 5 {
		t.Errorf("destroyed = %v, want [5]", dev.destroyed)
	}
	runtime.KeepAlive(w)
}

func TestDeadWorkersArePruned(t *testing.T) {
	r := New[int](&fakeDevice{})
	func() {
		r.AddWorker(NewWorker(func() bool { return true }))
	}()
	for range 10 {
		runtime.GC()
		if !r.CanReactOnCurrentThread() && r.Workers() == 0 {
			return
		}
	}
	t.Errorf("Workers() = %d, want dead worker pruned", r.Workers())
}

func TestRemoveWorker(t *testing.T) {
	r := New[int](&fakeDevice{})
	w := NewWorker(func() bool { return true })
	id := r.AddWorker(w)
	if !r.CanReactOnCurrentThread() {
		t.Fatal("CanReactOnCurrentThread() = false with an open worker")
	}
	if !r.RemoveWorker(id) {
		t.Error("RemoveWorker() = false")
	}
	if r.RemoveWorker(id) {
		t.Error("RemoveWorker() twice = true")
	}
	if r.CanReactOnCurrentThread() {
		t.Error("CanReactOnCurrentThread() = true without workers")
	}
	runtime.KeepAlive(w)
}

func TestConcurrentAddOperation(t *testing.T) {
	r, _, g, w := newReactor(t)
	var ran atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				r.AddOperation(func(*Reactor[int]) { ran.Add(1) })
			}
		})
	}
	wg.Wait()
	g.open.Store(true)
	r.React()
	if got := ran.Load(); got != 400 {
		t.Errorf("ran = %d, want 400", got)
	}
	runtime.KeepAlive(w)
}

func TestKindString(t *testing.T) {
	if KindTextureView.String() != "TextureView" {
		t.Errorf("String() = %q, want TextureView", KindTextureView.String())
	}
}
