package encoder

import (
	"sync/atomic"
)

// Registry keeps track of the session currently on air
type Registry struct {
	current atomic.Pointer[Session]
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Set(s *Session) {
	r.current.Store(s)
}

// Clear forgets the session, unless it has already been replaced with another one
func (r *Registry) Clear(s *Session) {
	r.current.CompareAndSwap(s, nil)
}

func (r *Registry) Current() (Info, bool) {
	s := r.current.Load()
	if s == nil {
		return Info{}, false
	}
	return s.Info(), true
}
