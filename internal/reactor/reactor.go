// Package reactor defers work on device objects until it can run safely.
//
// Device objects may only be created and destroyed while the device is
// owned, yet resources are released from arbitrary goroutines. A Reactor
// queues operations and handle changes and runs them on the next reaction
// that happens while some registered Worker reports the device as usable.
package reactor

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/gogpu/compositor"
)

// Kind is the type of device object behind a handle.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTexture
	KindTextureView
	KindBuffer
	KindSampler
	KindBindGroup
)

var kindNames = [...]string{"Unknown", "Texture", "TextureView", "Buffer", "Sampler", "BindGroup"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Handle names a device object owned by a reactor. The zero Handle is dead.
type Handle struct {
	id   uint64
	kind Kind
}

// Kind returns the object kind.
func (h Handle) Kind() Kind { return h.kind }

// IsDead reports whether h names no object.
func (h Handle) IsDead() bool { return h.id == 0 }

// Device destroys native objects of type O. It is only called during a
// reaction.
type Device[O any] interface {
	Destroy(kind Kind, obj O)
}

// Worker tells the reactor whether the calling goroutine may use the device
// right now.
type Worker struct {
	canReact func() bool
}

// NewWorker returns a worker backed by canReact. The reactor only holds a
// weak reference, so the worker stops counting once the caller drops it.
func NewWorker(canReact func() bool) *Worker {
	return &Worker{canReact: canReact}
}

// WorkerID identifies a registered worker.
type WorkerID uint64

// Operation is deferred work run during a reaction.
type Operation[O any] func(r *Reactor[O])

type liveHandle[O any] struct {
	obj               O
	pendingCollection bool
}

// Reactor is safe for concurrent use.
type Reactor[O any] struct {
	device Device[O]
	log    *slog.Logger

	workersMu sync.Mutex
	workers   map[WorkerID]weak.Pointer[Worker]
	nextID    atomic.Uint64

	opsMu sync.Mutex
	ops   []Operation[O]
	// execMu serializes reactions.
	execMu sync.Mutex

	handlesMu sync.RWMutex
	handles   map[Handle]*liveHandle[O]
}

// Option configures a Reactor.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for failures during reactions. It defaults
// to compositor.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a reactor over device.
func New[O any](device Device[O], opts ...Option) *Reactor[O] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = compositor.Logger()
	}
	return &Reactor[O]{
		device:  device,
		log:     o.logger,
		workers: make(map[WorkerID]weak.Pointer[Worker]),
		handles: make(map[Handle]*liveHandle[O]),
	}
}

// AddWorker registers w and returns its ID.
func (r *Reactor[O]) AddWorker(w *Worker) WorkerID {
	id := WorkerID(r.nextID.Add(1))
	r.workersMu.Lock()
	r.workers[id] = weak.Make(w)
	r.workersMu.Unlock()
	return id
}

// RemoveWorker unregisters a worker. It reports whether it was present.
func (r *Reactor[O]) RemoveWorker(id WorkerID) bool {
	r.workersMu.Lock()
	defer r.workersMu.Unlock()
	_, ok := r.workers[id]
	delete(r.workers, id)
	return ok
}

// CanReactOnCurrentThread reports whether any live worker allows the
// caller to use the device. Workers that were garbage collected are
// dropped.
func (r *Reactor[O]) CanReactOnCurrentThread() bool {
	r.workersMu.Lock()
	defer r.workersMu.Unlock()
	for id, wp := range r.workers {
		w := wp.Value()
		if w == nil {
			delete(r.workers, id)
			continue
		}
		if w.canReact() {
			return true
		}
	}
	return false
}

// Workers returns the number of registered workers, live or not.
func (r *Reactor[O]) Workers() int {
	r.workersMu.Lock()
	defer r.workersMu.Unlock()
	return len(r.workers)
}

// AddOperation queues op and reacts if possible. It reports false only for
// a nil operation.
func (r *Reactor[O]) AddOperation(op Operation[O]) bool {
	if op == nil {
		return false
	}
	r.opsMu.Lock()
	r.ops = append(r.ops, op)
	r.opsMu.Unlock()
	r.React()
	return true
}

// HasPendingOperations reports whether operations are queued.
func (r *Reactor[O]) HasPendingOperations() bool {
	r.opsMu.Lock()
	defer r.opsMu.Unlock()
	return len(r.ops) > 0
}

// React destroys collected handles and runs queued operations. It returns
// false when the device cannot be used from the calling goroutine or when
// another reaction is running.
func (r *Reactor[O]) React() bool {
	if !r.CanReactOnCurrentThread() {
		return false
	}
	if !r.execMu.TryLock() {
		return false
	}
	defer r.execMu.Unlock()
	r.collectHandles()
	for r.HasPendingOperations() {
		r.flushOps()
		r.collectHandles()
	}
	return true
}

func (r *Reactor[O]) flushOps() {
	r.opsMu.Lock()
	ops := r.ops
	r.ops = nil
	r.opsMu.Unlock()
	for _, op := range ops {
		op(r)
	}
}

// collectHandles destroys the objects of collected handles.
func (r *Reactor[O]) collectHandles() {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()
	for h, live := range r.handles {
		if live.pendingCollection {
			r.device.Destroy(h.kind, live.obj)
			delete(r.handles, h)
		}
	}
}

func (r *Reactor[O]) newHandle(kind Kind) Handle {
	return Handle{id: r.nextID.Add(1), kind: kind}
}

// Adopt hands an existing object to the reactor, which destroys it once
// the handle is collected.
func (r *Reactor[O]) Adopt(kind Kind, obj O) Handle {
	if kind == KindUnknown {
		return Handle{}
	}
	h := r.newHandle(kind)
	r.handlesMu.Lock()
	r.handles[h] = &liveHandle[O]{obj: obj}
	r.handlesMu.Unlock()
	return h
}

// CollectHandle marks h for destruction on the next reaction.
func (r *Reactor[O]) CollectHandle(h Handle) {
	r.handlesMu.Lock()
	if live, ok := r.handles[h]; ok {
		live.pendingCollection = true
	}
	r.handlesMu.Unlock()
}

// Handles returns the number of tracked handles, including those pending
// collection.
func (r *Reactor[O]) Handles() int {
	r.handlesMu.RLock()
	defer r.handlesMu.RUnlock()
	return len(r.handles)
}
