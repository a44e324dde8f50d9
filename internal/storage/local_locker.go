package storage

import (
	"context"
	"sync"
)

// LocalLocker is an in-process keyed lock. Each item gets a one-slot
// channel so waiters can give up when their context ends.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, itemID string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[itemID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[itemID] = s
	}
	s.waiters++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.done(itemID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.done(itemID, s)
		})
	}, nil
}

// done drops the slot once nobody holds or waits on it.
func (l *LocalLocker) done(itemID string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(l.slots, itemID)
	}
}
