package store

import (
	"sync"

	"github.com/google/uuid"
)

// Change describes one mutated row. The UI layer subscribes per table and
// re-reads whatever it renders from; the engine has no concept of a
// component or a render.
type Change struct {
	Table   Table
	ID      string
	Deleted bool
}

// Subscription delivers changes for one table. The channel is buffered;
// when a subscriber falls behind, older changes are dropped in favor of
// newer ones, so consumers must treat a delivery as "something changed,
// re-read" rather than a complete journal.
type Subscription struct {
	token string
	table Table
	ch    chan Change
}

// C is the delivery channel. It is closed when the subscription is
// canceled or the store closes.
func (s *Subscription) C() <-chan Change { return s.ch }

// Notifier fans table changes out to subscribers.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]*Subscription
}

func newNotifier() *Notifier {
	return &Notifier{subs: make(map[string]*Subscription)}
}

// Subscribe registers interest in one table.
func (n *Notifier) Subscribe(t Table) *Subscription {
	sub := &Subscription{
		token: uuid.New().String(),
		table: t,
		ch:    make(chan Change, 64),
	}
	n.mu.Lock()
	n.subs[sub.token] = sub
	n.mu.Unlock()
	return sub
}

// Cancel removes the subscription and closes its channel.
func (n *Notifier) Cancel(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[sub.token]; !ok {
		return
	}
	delete(n.subs, sub.token)
	close(sub.ch)
}

func (n *Notifier) emit(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		if sub.table != c.Table {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			// drop the oldest buffered change to make room
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- c:
			default:
			}
		}
	}
}

func (n *Notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for token, sub := range n.subs {
		delete(n.subs, token)
		close(sub.ch)
	}
}
