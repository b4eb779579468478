package config

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"recordstore/internal/adapter"
	"recordstore/internal/log"
	"recordstore/internal/storage"
)

// Selector chooses the backend an adapter is built on. The choice is fixed
// by the first successful Build.
type Selector struct {
	host   *storage.Host
	logger zerolog.Logger

	mu      sync.Mutex
	backend string
	built   *adapter.Adapter
}

// NewSelector creates a selector resolving namespaces from host. The backend
// defaults to localStorage.
func NewSelector(host *storage.Host) *Selector {
	return &Selector{
		host:    host,
		logger:  log.WithComponent("selector"),
		backend: storage.Backends[0],
	}
}

// SelectBackend records the backend to build on and returns s for chaining.
// An unrecognized name fails immediately with ErrInvalidBackend. Once Build
// has run the selection is locked and later calls leave it unchanged.
func (s *Selector) SelectBackend(name string) (*Selector, error) {
	if err := ValidateBackend(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built != nil {
		if name != s.backend {
			s.logger.Warn().Str("requested", name).Str("backend", s.backend).Msg("backend already built; selection ignored")
		}
		return s, nil
	}
	s.backend = name
	return s, nil
}

// Backend returns the current selection.
func (s *Selector) Backend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// Build resolves the selected namespace and returns the adapter bound to it.
// Subsequent calls return the same adapter.
func (s *Selector) Build() (*adapter.Adapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built != nil {
		return s.built, nil
	}

	ns, err := s.host.Namespace(s.backend)
	if err != nil {
		return nil, fmt.Errorf("build adapter: %w", err)
	}
	s.built = adapter.New(s.backend, ns)
	s.logger.Info().Str("backend", s.backend).Msg("adapter built")
	return s.built, nil
}
