package service

import (
	"sync"
	"time"

	"github.com/okian/juryrank/internal/domain/model"
)

// Update is published after every state change. Results must be treated as read-only.
type Update struct {
	Version uint64
	Results []model.ProjectResult
	At      time.Time
}

type subscribers struct {
	mu     sync.Mutex
	next   int
	chans  map[int]chan Update
	last   uint64 // highest version published
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{chans: make(map[int]chan Update)}
}

// publish hands u to every subscriber. Each channel holds only the latest
// update, so a slow reader skips intermediate versions. Updates older than
// one already published are dropped.
func (b *subscribers) publish(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u.Version <= b.last {
		return
	}
	b.last = u.Version
	for _, ch := range b.chans {
		select {
		case ch <- u:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- u
		}
	}
}

func (b *subscribers) add(initial Update) (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Update, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- initial
	id := b.next
	b.next++
	b.chans[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.chans[id]; ok {
				delete(b.chans, id)
				close(c)
			}
		})
	}
}

func (b *subscribers) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.chans {
		delete(b.chans, id)
		close(ch)
	}
	b.closed = true
}

func (b *subscribers) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chans)
}

// Subscribe returns a channel of ranking updates, primed with the current
// rankings, and a function that cancels the subscription.
func (s *Service) Subscribe() (<-chan Update, func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subs.add(Update{Version: s.version, Results: s.results, At: time.Now()})
}
