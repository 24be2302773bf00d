// Package observable provides a latest-value broadcaster.
//
// Every subscriber owns a one-slot channel. Publishing replaces whatever the
// slot holds, so a slow reader skips intermediate values but always ends up
// with the most recent one. Values are delivered in publish order.
package observable

import "sync"

type Value[T any] struct {
	mu      sync.Mutex
	subs    map[int]chan T
	next    int
	current T
	has     bool
	closed  bool
}

func New[T any]() *Value[T] {
	return &Value[T]{subs: make(map[int]chan T)}
}

// Publish stores v and offers it to every subscriber.
func (o *Value[T]) Publish(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.current, o.has = v, true
	for _, ch := range o.subs {
		offer(ch, v)
	}
}

// Latest returns the last published value.
func (o *Value[T]) Latest() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current, o.has
}

// Subscribe returns a channel carrying published values and a cancel func.
// When a value was already published the channel starts with it.
func (o *Value[T]) Subscribe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan T, 1)
	if o.closed {
		close(ch)
		return ch, func() {}
	}
	id := o.next
	o.next++
	o.subs[id] = ch
	if o.has {
		ch <- o.current
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if c, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(c)
			}
		})
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (o *Value[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
}

func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
