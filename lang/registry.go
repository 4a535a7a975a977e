package lang

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry maps language names and file extensions to descriptors.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]*Language
	extMap    map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		languages: make(map[string]*Language),
		extMap:    make(map[string]string),
	}
}

// Register validates and adds a language. Registering the same name twice
// is an error. When two languages claim the same extension the first
// registration wins.
func (r *Registry) Register(l *Language) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("registering language: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.languages[l.Name]; exists {
		return fmt.Errorf("language %s already registered", l.Name)
	}
	r.languages[l.Name] = l
	for _, ext := range l.Extensions {
		if _, exists := r.extMap[ext]; !exists {
			r.extMap[ext] = l.Name
		}
	}
	return nil
}

// Get returns the language registered under name.
func (r *Registry) Get(name string) (*Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.languages[name]
	if !ok {
		return nil, fmt.Errorf("no language registered as %q", name)
	}
	return l, nil
}

// ForFile returns the language serving the file's extension.
func (r *Registry) ForFile(path string) (*Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, fmt.Errorf("no extension on %q", path)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.extMap[ext]
	if !ok {
		return nil, fmt.Errorf("no language registered for extension %q", ext)
	}
	return r.languages[name], nil
}

// Supported reports whether any registered language serves the file.
func (r *Registry) Supported(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.extMap[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.languages))
	for name := range r.languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns a copy of the extension map.
func (r *Registry) Extensions() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.extMap))
	for ext, name := range r.extMap {
		out[ext] = name
	}
	return out
}

// DefaultRegistry holds the languages registered by the language packages'
// init functions.
var DefaultRegistry = NewRegistry()

// Register adds a language to the default registry.
func Register(l *Language) error {
	return DefaultRegistry.Register(l)
}

// MustRegister is Register that panics on error. Language packages call it
// from init, where a bad descriptor is a programming error.
func MustRegister(l *Language) {
	if err := Register(l); err != nil {
		panic(err)
	}
}

// Get returns a language from the default registry.
func Get(name string) (*Language, error) {
	return DefaultRegistry.Get(name)
}

// ForFile returns the default-registry language serving the file.
func ForFile(path string) (*Language, error) {
	return DefaultRegistry.ForFile(path)
}

// Supported reports whether the default registry serves the file.
func Supported(path string) bool {
	return DefaultRegistry.Supported(path)
}

// Names returns the default registry's language names, sorted.
func Names() []string {
	return DefaultRegistry.Names()
}
