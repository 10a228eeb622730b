// Package warninglog keeps the most recently seen warnings from a streaming
// source so they can be served as a pull-based warning feed.
package warninglog

import (
	"context"
	"sync"

	"github.com/couchcryptid/cable-health-service/internal/domain"
)

// Log is a bounded, thread-safe set of warnings keyed by warning ID. When
// full, the warning seen least recently is evicted. It implements
// pipeline.BatchLoader and domain.WarningFeed.
type Log struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently seen
	tail       *entry // least recently seen
	onUpdate   func()
}

type entry struct {
	key   string
	value domain.Warning
	prev  *entry
	next  *entry
}

// New creates a Log holding at most maxEntries warnings. Values below one
// are treated as one.
func New(maxEntries int) *Log {
	return &Log{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*entry),
	}
}

// OnUpdate registers fn to run after every batch that changed the log. It
// runs outside the log's lock.
func (l *Log) OnUpdate(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onUpdate = fn
}

// LoadBatch records warnings in order. A warning already present is
// replaced and becomes the most recently seen.
func (l *Log) LoadBatch(_ context.Context, warnings []domain.Warning) error {
	if len(warnings) == 0 {
		return nil
	}

	l.mu.Lock()
	for _, w := range warnings {
		l.put(w.ID(), w)
	}
	fn := l.onUpdate
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// FetchWarnings returns a copy of the log, least recently seen first.
func (l *Log) FetchWarnings(_ context.Context) ([]domain.Warning, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Warning, 0, len(l.entries))
	for e := l.tail; e != nil; e = e.prev {
		out = append(out, e.value)
	}
	return out, nil
}

// Len returns the number of warnings held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) put(key string, value domain.Warning) {
	if e, ok := l.entries[key]; ok {
		e.value = value
		l.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	l.entries[key] = e
	l.addToFront(e)

	if len(l.entries) > l.maxEntries {
		l.evictTail()
	}
}

func (l *Log) moveToFront(e *entry) {
	if e == l.head {
		return
	}
	l.remove(e)
	l.addToFront(e)
}

func (l *Log) addToFront(e *entry) {
	e.next = l.head
	e.prev = nil
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
}

func (l *Log) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
}

func (l *Log) evictTail() {
	if l.tail == nil {
		return
	}
	delete(l.entries, l.tail.key)
	l.remove(l.tail)
}
