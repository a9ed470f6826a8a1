// Package lock implementaciones de ports.Locker: mutex en proceso y redislock.
package lock

import (
	"context"
	"sort"
	"sync"
)

// Local serializa por llave dentro del proceso. Suficiente con una sola instancia de la API.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocal crea el locker en proceso.
func NewLocal() *Local {
	return &Local{slots: map[string]*slot{}}
}

// Acquire toma las llaves en orden lexicográfico; si el contexto vence, libera las ya tomadas.
func (l *Local) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		s := l.ref(k)
		select {
		case s.ch <- struct{}{}:
			held = append(held, k)
		case <-ctx.Done():
			l.unref(k)
			l.release(held)
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *Local) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Local) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *Local) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		s := l.slots[keys[i]]
		l.mu.Unlock()
		<-s.ch
		l.unref(keys[i])
	}
}

// normalize ordena y quita duplicados para que dos operaciones nunca se bloqueen en cruz.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
