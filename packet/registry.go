package packet

import (
	"sync"

	"github.com/pebblekit/pebble2/codec"
)

// Factory builds a fresh, zero-value instance of a registered packet kind
// so the framing decoder can decode into it.
type Factory func() Descriptor

// Registry is the endpoint id -> packet kind table the framing decoder
// consults to dispatch an inbound frame. Unlike the reference kernel's
// class-definition-time registration (Go has no such hook), entries are
// added by an explicit Register call, normally from each packet package's
// init().
type Registry struct {
	mu    sync.RWMutex
	byEnd map[uint16]Factory
}

func NewRegistry() *Registry {
	return &Registry{byEnd: make(map[uint16]Factory)}
}

// Global is the process-wide registry every packet package's init()
// registers into, and the one the connection core uses by default.
var Global = NewRegistry()

func (r *Registry) Register(endpoint uint16, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEnd[endpoint] = f
}

func (r *Registry) Lookup(endpoint uint16) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byEnd[endpoint]
	return f, ok
}

// Decode looks endpoint up and parses payload into a new instance of its
// registered kind. An unregistered endpoint is not an error: the framing
// layer skips it rather than failing the whole stream, so Decode returns
// (nil, false, nil) for that case.
func (r *Registry) Decode(endpoint uint16, payload []byte, def codec.Endianness) (Descriptor, bool, error) {
	f, ok := r.Lookup(endpoint)
	if !ok {
		return nil, false, nil
	}
	msg := f()
	if _, err := Parse(msg, payload, def); err != nil {
		return nil, true, err
	}
	return msg, true, nil
}
