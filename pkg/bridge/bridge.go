// Package bridge serializes browser work onto one long-lived goroutine.
//
// Playwright browser, context and page handles are created on the bridge
// worker and must only be touched from it; handing them between
// independently spawned goroutines per request corrupts driver state. The
// bridge is the single sanctioned crossing between synchronous HTTP handlers
// and the browser: handlers submit a closure, the worker runs it, the
// handler blocks for the result.
package bridge

import (
	"fmt"
	"sync"
)

// Bridge owns the background worker. The zero value is not usable; call New.
type Bridge struct {
	mu      sync.Mutex
	jobs    chan *job
	running bool
}

type job struct {
	fn   func() (interface{}, error)
	done chan outcome
	stop bool
}

type outcome struct {
	value interface{}
	err   error
}

// New creates a bridge. The worker starts lazily on the first Do call.
func New() *Bridge {
	return &Bridge{}
}

// Do runs fn on the bridge worker and blocks until it completes. Jobs from
// concurrent callers are executed strictly one at a time, in submission
// order. A panic inside fn is returned as an error; it never kills the
// worker. If the worker has died, Do restarts it before submitting.
func (b *Bridge) Do(fn func() (interface{}, error)) (interface{}, error) {
	j := &job{fn: fn, done: make(chan outcome, 1)}
	b.enqueue(j)
	res := <-j.done
	return res.value, res.err
}

// Submit is the typed convenience form of (*Bridge).Do.
func Submit[T any](b *Bridge, fn func() (T, error)) (T, error) {
	value, err := b.Do(func() (interface{}, error) {
		return fn()
	})
	typed, _ := value.(T)
	return typed, err
}

// Stop shuts the worker down after draining jobs submitted before it, and
// blocks until the worker has acknowledged. A later Do transparently starts
// a fresh worker.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	// Mark dead before the sentinel lands so a racing Do opens a fresh
	// worker instead of queueing behind the shutdown.
	b.running = false
	j := &job{stop: true, done: make(chan outcome, 1)}
	b.jobs <- j
	b.mu.Unlock()

	<-j.done
}

// Running reports whether the worker goroutine is alive.
func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Bridge) enqueue(j *job) {
	// The send happens under the lock so that channel order matches lock
	// order; without this a job could land behind a stop sentinel and never
	// be picked up. The worker drains without taking the lock, so a full
	// queue cannot deadlock here.
	b.mu.Lock()
	if !b.running {
		b.startLocked()
	}
	b.jobs <- j
	b.mu.Unlock()
}

func (b *Bridge) startLocked() {
	jobs := make(chan *job, 16)
	b.jobs = jobs
	b.running = true

	go func() {
		defer func() {
			// A fault in the dispatch loop itself must not take the process
			// down; mark the worker dead so the next Do restarts it.
			recover()
			b.mu.Lock()
			if b.jobs == jobs {
				b.running = false
			}
			b.mu.Unlock()
		}()

		for j := range jobs {
			if j.stop {
				j.done <- outcome{}
				return
			}
			j.done <- run(j.fn)
		}
	}()
}

func run(fn func() (interface{}, error)) (res outcome) {
	defer func() {
		if r := recover(); r != nil {
			res = outcome{err: fmt.Errorf("browser operation panicked: %v", r)}
		}
	}()

	value, err := fn()
	return outcome{value: value, err: err}
}
