package draftform

import "sync"

// Registry keeps one Form per browser session.
type Registry struct {
	mu    sync.Mutex
	forms map[string]*Form
	deps  Deps
}

// NewRegistry returns an empty registry whose forms share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{forms: make(map[string]*Form), deps: deps}
}

// Get returns the form for key, creating a closed one on first use.
func (r *Registry) Get(key string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[key]
	if !ok {
		f = New(r.deps)
		r.forms[key] = f
	}
	return f
}

// Transient returns a form that is not tracked, for callers without a session.
func (r *Registry) Transient() *Form {
	return New(r.deps)
}

// Drop closes and forgets the form for key.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	f, ok := r.forms[key]
	delete(r.forms, key)
	r.mu.Unlock()
	if ok {
		f.Close()
	}
}

// Len returns the number of tracked forms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}
