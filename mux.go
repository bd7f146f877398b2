package archserver

import (
	"context"
	"sync"
)

type Mux struct {
	entries map[string]muxEntry
	mu      *sync.RWMutex
}

type muxEntry struct {
	h    Handler
	line string
}

func NewMux() *Mux {
	return &Mux{
		entries: make(map[string]muxEntry),
		mu:      &sync.RWMutex{},
	}
}

// NewRouter returns the default routing table: the architecture page on
// "/", "/x86" and "/arm64", the health page on "/ishealthy".
func NewRouter(arch string) (*Mux, error) {
	page, err := ArchHandler(arch)
	if err != nil {
		return nil, err
	}

	m := NewMux()
	m.Handle("GET / HTTP/1.1", page)
	m.Handle("GET /x86 HTTP/1.1", page)
	m.Handle("GET /arm64 HTTP/1.1", page)
	m.Handle("GET /ishealthy HTTP/1.1", HealthHandler())

	return m, nil
}

// Handle registers a handler for an exact request line
func (m *Mux) Handle(line string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[line] = muxEntry{
		h:    h,
		line: line,
	}
}

// match finds a handler in entries given a request line.
func (m *Mux) match(line string) (h Handler) {
	v, ok := m.entries[line]
	if ok {
		return v.h
	}

	return nil
}

// ServeRequest dispatches the request to the handler registered
// for its request line.
func (m *Mux) ServeRequest(ctx context.Context, req *Request) (*Response, error) {
	h := m.Handler(req)
	return h.ServeRequest(ctx, req)
}

// Handler returns the handler to use for the given request.
// It always returns a non-nil handler.
//
// If there is no registered handler for the request line,
// handler returns a 'not found' handler.
func (m *Mux) Handler(req *Request) (h Handler) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h = m.match(req.Line)
	if h == nil {
		h = NotFoundHandler()
	}

	return h
}
