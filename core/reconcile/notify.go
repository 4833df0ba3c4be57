package reconcile

import "sync"

type subscription struct {
	id uint64
	fn func()
}

// notifier fans a payload-free "view changed" signal out to subscribers.
type notifier struct {
	mu   sync.Mutex
	next uint64
	subs []subscription
}

func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	n.next++
	id := n.next
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

// fire calls subscribers in subscription order. It must not be called while
// holding the engine lock so callbacks can query the engine.
func (n *notifier) fire() {
	n.mu.Lock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}
