/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keymutex

import "sync"

type refLock struct {
	mu   sync.Mutex
	refs int // guarded by KeyMutex.mu
}

// KeyMutex is a set of mutexes indexed by key. The zero value is ready to use.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// New creates a new KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*refLock)}
}

// Lock acquires the mutex for the key and returns a function that releases it.
// The returned function must be called exactly once.
func (km *KeyMutex) Lock(key string) (unlock func()) {
	km.mu.Lock()
	if km.locks == nil {
		km.locks = make(map[string]*refLock)
	}
	l, ok := km.locks[key]
	if !ok {
		l = &refLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			km.release(key, l)
		})
	}
}

// Do runs fn while holding the mutex for the key.
func (km *KeyMutex) Do(key string, fn func()) {
	unlock := km.Lock(key)
	defer unlock()
	fn()
}

// Len returns the number of keys that currently have a holder or a waiter.
func (km *KeyMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.locks)
}

func (km *KeyMutex) release(key string, l *refLock) {
	km.mu.Lock()
	defer km.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(km.locks, key)
	}
}
