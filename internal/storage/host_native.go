//go:build !(js && wasm)

package storage

import (
	"errors"
	"path/filepath"
)

// localFile is the file localStorage lives in, relative to Options.DataDir.
const localFile = "localStorage.sqlite"

func openNamespace(backend string, opts Options) (Namespace, error) {
	switch backend {
	case Local:
		if opts.DataDir == "" {
			return nil, errors.New("localStorage requires a data directory")
		}
		return OpenSQLiteNamespace(filepath.Join(opts.DataDir, localFile), opts.QuotaBytes)
	case Session:
		return NewMemoryNamespace(opts.QuotaBytes), nil
	default:
		return nil, ErrUnknownBackend
	}
}
