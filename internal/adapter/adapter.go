// Package adapter implements the record API over a storage namespace.
//
// Every operation touches the namespace synchronously, under the adapter's
// lock, before it returns. The returned promise carries an Envelope on
// success and a *Failure on rejection; its settlement is delivered on the
// adapter's notification loop.
package adapter

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"recordstore/internal/log"
	"recordstore/internal/metrics"
	"recordstore/internal/promise"
	"recordstore/internal/storage"
)

// Operation names, used in failures, logs and metrics.
const (
	OpCreate    = "create"
	OpGet       = "get"
	OpList      = "list"
	OpUpdate    = "update"
	OpRemove    = "remove"
	OpRemoveAll = "removeAll"
)

// Result is the deferred outcome of an operation.
type Result = promise.Promise[Envelope]

// Adapter exposes CRUD operations over a single namespace. It holds the
// namespace for its lifetime but never copies its contents.
type Adapter struct {
	backend string
	ns      storage.Namespace
	loop    *promise.Loop
	logger  zerolog.Logger

	mu sync.Mutex
}

// New creates an adapter bound to ns. backend labels logs and metrics.
func New(backend string, ns storage.Namespace) *Adapter {
	return &Adapter{
		backend: backend,
		ns:      ns,
		loop:    promise.NewLoop(),
		logger:  log.WithComponent("adapter").With().Str("backend", backend).Logger(),
	}
}

// Backend returns the name of the backend the adapter is bound to.
func (a *Adapter) Backend() string {
	return a.backend
}

// Close stops the notification loop after the settlements already queued are
// delivered. It does not wait, so it may be called from a Then callback.
// Operations issued afterwards still work; their settlements are delivered
// inline.
func (a *Adapter) Close() {
	a.loop.Close()
}

// CreateOption configures Create.
type CreateOption func(*createOptions)

type createOptions struct {
	key string
}

// WithKey stores the record under key instead of its id.
func WithKey(key string) CreateOption {
	return func(o *createOptions) {
		o.key = key
	}
}

// Create stores record under the WithKey override, or else under its id
// field, replacing any existing entry. It resolves with the record as given.
func (a *Adapter) Create(record any, opts ...CreateOption) *Result {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}
	return a.run(OpCreate, o.key, func() (any, error) {
		return a.create(record, o.key)
	})
}

func (a *Adapter) create(record any, key string) (any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = idFromJSON(raw)
	}
	if key == "" {
		return nil, ErrNoKey
	}

	if err := a.ns.SetItem(key, string(raw)); err != nil {
		return nil, err
	}
	return record, nil
}

// Get resolves with the decoded value at key, the raw string if it is not
// JSON, or nil if key is absent.
func (a *Adapter) Get(key string) *Result {
	return a.run(OpGet, key, func() (any, error) {
		value, ok, err := a.ns.GetItem(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return decodeValue(value), nil
	})
}

// List resolves with a ListResult holding every stored value in the
// namespace's native order.
func (a *Adapter) List() *Result {
	return a.run(OpList, "", func() (any, error) {
		entries, err := storage.Entries(a.ns)
		if err != nil {
			return nil, err
		}
		results := make([]any, 0, len(entries))
		for _, e := range entries {
			results = append(results, decodeValue(e.Value))
		}
		return ListResult{Results: results}, nil
	})
}

// Update stores a copy of record with its id set to key. record is left
// untouched. The outcome is that of Create on the copy.
func (a *Adapter) Update(key string, record any) *Result {
	return a.run(OpUpdate, key, func() (any, error) {
		dup, err := withID(record, key)
		if err != nil {
			return nil, err
		}
		return a.create(dup, "")
	})
}

// Remove deletes key. Removing an absent key resolves normally.
func (a *Adapter) Remove(key string) *Result {
	return a.run(OpRemove, key, func() (any, error) {
		return nil, a.ns.RemoveItem(key)
	})
}

// RemoveAll clears the namespace.
func (a *Adapter) RemoveAll() *Result {
	return a.run(OpRemoveAll, "", func() (any, error) {
		return nil, a.ns.Clear()
	})
}

// run performs fn against the namespace and settles the returned promise
// with its outcome.
func (a *Adapter) run(op, key string, fn func() (any, error)) *Result {
	started := time.Now()

	a.mu.Lock()
	data, err := fn()
	a.mu.Unlock()

	metrics.ObserveOperation(a.backend, op, started, err != nil)

	if err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			metrics.IncQuotaRejection(a.backend)
		}
		a.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("operation rejected")
		return promise.Rejected[Envelope](a.loop, &Failure{Op: op, Err: err})
	}

	a.logger.Debug().Str("op", op).Str("key", key).Msg("operation resolved")
	return promise.Resolved(a.loop, Envelope{Data: data})
}
