// Package reactive provides explicit change notification and memoized derived
// values for in-process state stores.
package reactive

import (
	"sync"
	"sync/atomic"
)

// Versioned is implemented by any source whose changes can be detected by
// comparing a monotonically increasing version.
type Versioned interface {
	Version() uint64
}

type subscription struct {
	id int
	fn func()
}

// Notifier fans a change signal out to subscribers and counts changes.
// The zero value is ready to use.
type Notifier struct {
	version atomic.Uint64

	mu     sync.Mutex
	nextID int
	subs   []subscription
}

// Version returns the number of Notify calls so far.
func (n *Notifier) Version() uint64 {
	return n.version.Load()
}

// Subscribe registers fn to be called after every change and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify bumps the version and calls every subscriber in registration order.
// Subscribers run on the caller's goroutine, without the notifier lock held.
func (n *Notifier) Notify() {
	n.version.Add(1)

	n.mu.Lock()
	subs := make([]func(), len(n.subs))
	for i, s := range n.subs {
		subs[i] = s.fn
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
