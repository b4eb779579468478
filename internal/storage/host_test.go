//go:build !(js && wasm)

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost_ReturnsSharedNamespace(t *testing.T) {
	host := NewHost(Options{DataDir: t.TempDir()})
	defer host.Close()

	for _, backend := range Backends {
		first, err := host.Namespace(backend)
		require.NoError(t, err)
		second, err := host.Namespace(backend)
		require.NoError(t, err)
		assert.Same(t, first, second, "backend %s must be opened once", backend)
	}

	local, _ := host.Namespace(Local)
	session, _ := host.Namespace(Session)
	assert.IsType(t, &SQLiteNamespace{}, local)
	assert.IsType(t, &MemoryNamespace{}, session)
}

func TestHost_UnknownBackend(t *testing.T) {
	host := NewHost(Options{})
	defer host.Close()

	_, err := host.Namespace("indexedDB")
	require.ErrorIs(t, err, ErrUnknownBackend)
	assert.Contains(t, err.Error(), "localStorage, sessionStorage")
}

func TestHost_LocalRequiresDataDir(t *testing.T) {
	host := NewHost(Options{})
	defer host.Close()

	_, err := host.Namespace(Local)
	require.Error(t, err)

	_, err = host.Namespace(Session)
	require.NoError(t, err)
}

func TestHost_Close(t *testing.T) {
	host := NewHost(Options{DataDir: t.TempDir()})
	ns, err := host.Namespace(Local)
	require.NoError(t, err)

	require.NoError(t, host.Close())
	require.NoError(t, host.Close())

	assert.ErrorIs(t, ns.SetItem("a", "1"), ErrClosed)
	_, err = host.Namespace(Session)
	assert.ErrorIs(t, err, ErrClosed)
}
