package session

import (
	"sync"

	"fraudwatch/internal/gateway/entity"
)

// Locker serializes work per user while letting different users proceed in
// parallel. Entries are reference counted and removed once unused.
type Locker struct {
	mu    sync.Mutex
	locks map[entity.UserID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[entity.UserID]*userLock)}
}

// Lock blocks until userID's lock is held and returns the function that
// releases it.
func (l *Locker) Lock(userID entity.UserID) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			ul.mu.Unlock()
			l.mu.Lock()
			ul.refs--
			if ul.refs == 0 {
				delete(l.locks, userID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
