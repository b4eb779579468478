package storage

import (
	"errors"
	"fmt"
)

// Recognized backend names.
const (
	Local   = "localStorage"
	Session = "sessionStorage"
)

// Backends lists the recognized backend names; the first one is the default.
var Backends = []string{Local, Session}

var (
	// ErrQuotaExceeded is returned by SetItem when the write would grow the
	// namespace past its quota. The namespace is left unchanged.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnknownBackend is returned when a backend name is not recognized.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrClosed is returned by namespaces used after Close.
	ErrClosed = errors.New("storage namespace closed")
)

// Namespace is a flat, synchronous store of string keys to string values.
type Namespace interface {
	// GetItem returns the value stored at key. ok is false if key is absent.
	GetItem(key string) (value string, ok bool, err error)
	// SetItem stores value at key, replacing any existing value.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(key string) error
	// Clear removes every entry.
	Clear() error
	// Length returns the number of entries.
	Length() (int, error)
	// Key returns the name of the index-th key in the namespace's native order.
	Key(index int) (key string, ok bool, err error)
}

// Entry is a single key/value pair.
type Entry struct {
	Key   string
	Value string
}

// Enumerator is implemented by namespaces that can return all entries in a
// single consistent read.
type Enumerator interface {
	Entries() ([]Entry, error)
}

// Entries returns every entry of ns in its native order. It uses the
// Enumerator fast path when available and falls back to Length/Key/GetItem.
func Entries(ns Namespace) ([]Entry, error) {
	if e, ok := ns.(Enumerator); ok {
		return e.Entries()
	}

	n, err := ns.Length()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		key, ok, err := ns.Key(i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		value, ok, err := ns.GetItem(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return entries, nil
}

// IsBackend reports whether name is a recognized backend.
func IsBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// entrySize is the number of bytes an entry counts against a quota.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

func quotaError(need, quota int64) error {
	return fmt.Errorf("%w: entry needs %d bytes, quota is %d", ErrQuotaExceeded, need, quota)
}
