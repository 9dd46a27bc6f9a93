package unitofwork

import (
	"context"
	"sync"
)

// KeyLocker exclusión mutua por clave. Lock adquiere las claves en el orden recibido
// y devuelve unlock; si ctx termina antes libera lo adquirido y devuelve error.
type KeyLocker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

var _ KeyLocker = (*LocalKeyLocker)(nil)

// LocalKeyLocker KeyLocker en proceso: un semáforo de capacidad 1 por clave.
// Las entradas se eliminan cuando nadie las usa.
type LocalKeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalKeyLocker() *LocalKeyLocker {
	return &LocalKeyLocker{locks: map[string]*keyLock{}}
}

func (l *LocalKeyLocker) acquireRef(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LocalKeyLocker) releaseRef(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl := l.locks[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *LocalKeyLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	held := make([]string, 0, len(keys))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.mu.Lock()
			kl := l.locks[held[i]]
			l.mu.Unlock()
			<-kl.ch
			l.releaseRef(held[i])
		}
	}
	for _, key := range keys {
		kl := l.acquireRef(key)
		select {
		case kl.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.releaseRef(key)
			unlock()
			return nil, ctx.Err()
		}
	}
	return unlock, nil
}
