package eventlog

import (
	"sync"

	"mebel-mes/internal/storage"
)

const DefaultSize = 200

// Log кольцевой буфер событий: при переполнении вытесняется самое старое
type Log struct {
	mu    sync.RWMutex
	buf   []storage.Event
	start int
	n     int
}

func New(size int) *Log {
	if size <= 0 {
		size = DefaultSize
	}
	return &Log{buf: make([]storage.Event, size)}
}

func (l *Log) Append(ev storage.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.n < len(l.buf) {
		l.buf[(l.start+l.n)%len(l.buf)] = ev
		l.n++
		return
	}

	l.buf[l.start] = ev
	l.start = (l.start + 1) % len(l.buf)
}

// Recent последние события, новые первыми. limit <= 0 — все.
func (l *Log) Recent(limit int) []storage.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > l.n {
		limit = l.n
	}

	out := make([]storage.Event, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (l.start + l.n - 1 - i) % len(l.buf)
		out = append(out, l.buf[idx])
	}

	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.n
}

func (l *Log) Cap() int {
	return len(l.buf)
}
