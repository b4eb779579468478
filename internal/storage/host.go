package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Options configures the namespaces a Host provides.
type Options struct {
	// DataDir holds durable namespaces. Required for localStorage on native builds.
	DataDir string
	// QuotaBytes caps each namespace; zero disables the check.
	QuotaBytes int64
}

// Host is the environment that owns the namespaces. Each backend is opened
// once on first use and shared by every caller; namespaces outlive the
// adapters bound to them.
type Host struct {
	opts Options

	mu     sync.Mutex
	opened map[string]Namespace
	closed bool
}

// NewHost creates a host that opens namespaces with opts.
func NewHost(opts Options) *Host {
	return &Host{
		opts:   opts,
		opened: make(map[string]Namespace),
	}
}

// Namespace returns the namespace for backend, opening it if needed.
func (h *Host) Namespace(backend string) (Namespace, error) {
	if !IsBackend(backend) {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownBackend, backend, strings.Join(Backends, ", "))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	if ns, ok := h.opened[backend]; ok {
		return ns, nil
	}
	ns, err := openNamespace(backend, h.opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	h.opened[backend] = ns
	return ns, nil
}

// Close closes every namespace the host opened.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	var errs []error
	for name, ns := range h.opened {
		if c, ok := ns.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			}
		}
	}
	h.opened = nil
	return errors.Join(errs...)
}
