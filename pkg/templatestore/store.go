// Package templatestore holds LG templates per container (an LG file such as
// "common") behind the primitives the copy engine forks templates through.
package templatestore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/voicetyped/composer/pkg/lg"
)

var (
	// ErrNotFound is returned when a container or template does not exist.
	ErrNotFound = errors.New("template not found")
	// ErrCircuitOpen is returned by BreakerStore while the upstream store is
	// considered unavailable.
	ErrCircuitOpen = errors.New("template store circuit open")
)

// Store is a template store usable by the copy engine and by template
// management endpoints.
type Store interface {
	lg.TemplateAPI
	ListTemplates(ctx context.Context, containerID string) ([]lg.Template, error)
	DeleteTemplates(ctx context.Context, containerID string, names []string) error
}

// MemoryStore keeps templates in process memory. All access is thread-safe.
type MemoryStore struct {
	mu         sync.RWMutex
	containers map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{containers: make(map[string]map[string]string)}
}

// GetTemplates returns the template named by a bracketed reference, or every
// template of the container for any other filter.
func (s *MemoryStore) GetTemplates(_ context.Context, containerID, refOrFilter string) ([]lg.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.containers[containerID]
	if ref, ok := lg.ParseTemplateRef(refOrFilter); ok {
		body, ok := c[ref.Name]
		if !ok {
			return nil, nil
		}
		return []lg.Template{{Name: ref.Name, Body: body}}, nil
	}
	return sortedTemplates(c), nil
}

// UpdateTemplate creates or replaces a template.
func (s *MemoryStore) UpdateTemplate(_ context.Context, containerID, name, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[containerID]
	if !ok {
		c = make(map[string]string)
		s.containers[containerID] = c
	}
	c[name] = body
	return nil
}

// ListTemplates returns the container's templates sorted by name.
func (s *MemoryStore) ListTemplates(_ context.Context, containerID string) ([]lg.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[containerID]
	if !ok {
		return nil, ErrNotFound
	}
	return sortedTemplates(c), nil
}

// DeleteTemplates removes the named templates. Unknown names are ignored.
func (s *MemoryStore) DeleteTemplates(_ context.Context, containerID string, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.containers[containerID]
	for _, n := range names {
		delete(c, n)
	}
	return nil
}

// Containers returns the known container IDs, sorted.
func (s *MemoryStore) Containers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.containers))
	for id := range s.containers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReplaceContainer swaps in a full set of templates for a container.
func (s *MemoryStore) ReplaceContainer(containerID string, templates []lg.Template) {
	c := make(map[string]string, len(templates))
	for _, t := range templates {
		c[t.Name] = t.Body
	}
	s.mu.Lock()
	s.containers[containerID] = c
	s.mu.Unlock()
}

func sortedTemplates(c map[string]string) []lg.Template {
	out := make([]lg.Template, 0, len(c))
	for name, body := range c {
		out = append(out, lg.Template{Name: name, Body: body})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
