package state

import (
	"sync"
	"sync/atomic"
)

// Readable is a value that can be read and observed.
type Readable[T any] interface {
	Get() T
	// Subscribe calls fn with the current value right away and again after
	// every change until the returned function is called.
	Subscribe(fn func(T)) (unsubscribe func())
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Cell is an independently settable value. Writes replace the whole value;
// slice and pointer values must be treated as immutable once stored.
//
// Subscribers run synchronously on the writer's goroutine, after the write
// lock is released, so they may read or write any cell.
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   []subscriber[T]
	nextID uint64
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *Cell[T]) Set(v T) {
	c.store(v)()
}

// Update replaces the value with fn(current) atomically.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	v := fn(c.value)
	c.value = v
	subs := c.snapshot()
	c.mu.Unlock()
	notify(subs, v)
}

func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	v := c.value
	c.mu.Unlock()

	fn(v)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// store writes v and returns the pending notification.
func (c *Cell[T]) store(v T) func() {
	c.mu.Lock()
	c.value = v
	subs := c.snapshot()
	c.mu.Unlock()
	return func() { notify(subs, v) }
}

func (c *Cell[T]) snapshot() []subscriber[T] {
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	return subs
}

func notify[T any](subs []subscriber[T], v T) {
	for _, s := range subs {
		s.fn(v)
	}
}

// Derived is a pure projection of one or more sources. It holds no cached
// value: Get recomputes from the sources' current values, so it can never
// be stale.
type Derived[T any] struct {
	compute func() T
	sources []func(func()) func()
}

// Derive projects a single source.
func Derive[A, T any](a Readable[A], fn func(A) T) *Derived[T] {
	return &Derived[T]{
		compute: func() T { return fn(a.Get()) },
		sources: []func(func()) func(){watch(a)},
	}
}

// Derive2 projects two sources.
func Derive2[A, B, T any](a Readable[A], b Readable[B], fn func(A, B) T) *Derived[T] {
	return &Derived[T]{
		compute: func() T { return fn(a.Get(), b.Get()) },
		sources: []func(func()) func(){watch(a), watch(b)},
	}
}

func watch[A any](r Readable[A]) func(func()) func() {
	return func(changed func()) func() {
		return r.Subscribe(func(A) { changed() })
	}
}

func (d *Derived[T]) Get() T {
	return d.compute()
}

// Subscribe calls fn once with the current value and again whenever any
// source changes.
func (d *Derived[T]) Subscribe(fn func(T)) func() {
	var ready atomic.Bool
	changed := func() {
		if ready.Load() {
			fn(d.compute())
		}
	}

	unsubs := make([]func(), 0, len(d.sources))
	for _, source := range d.sources {
		unsubs = append(unsubs, source(changed))
	}
	ready.Store(true)
	fn(d.compute())

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
