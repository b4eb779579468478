package it

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recordstore/internal/storage"
)

func TestSmoke_CreateGetUpdateRemove(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h := NewHarness(t.TempDir(), 0)
	defer h.Stop()

	for _, backend := range storage.Backends {
		t.Run(backend, func(t *testing.T) {
			node, err := h.StartNode(ctx, backend)
			require.NoError(t, err)
			client := node.Client()

			_, err = client.Create(ctx, map[string]any{"id": "a", "v": 1}, "")
			require.NoError(t, err)

			got, err := client.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"id": "a", "v": 1.0}, got.Data)

			_, err = client.Update(ctx, "a", map[string]any{"v": 2})
			require.NoError(t, err)
			got, err = client.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"id": "a", "v": 2.0}, got.Data)

			require.NoError(t, client.Remove(ctx, "a"))
			got, err = client.Get(ctx, "a")
			require.NoError(t, err)
			assert.Nil(t, got.Data)

			require.NoError(t, client.RemoveAll(ctx))
		})
	}
}

func TestSmoke_LocalStorageSurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h := NewHarness(t.TempDir(), 0)
	defer h.Stop()

	for _, tc := range []struct {
		backend string
		durable bool
	}{
		{backend: storage.Local, durable: true},
		{backend: storage.Session, durable: false},
	} {
		first, err := h.StartNode(ctx, tc.backend)
		require.NoError(t, err)
		_, err = first.Client().Create(ctx, map[string]any{"kept": true}, "restart-key")
		require.NoError(t, err)
		first.Stop()

		second, err := h.StartNode(ctx, tc.backend)
		require.NoError(t, err)
		got, err := second.Client().Get(ctx, "restart-key")
		require.NoError(t, err)

		if tc.durable {
			assert.Equal(t, map[string]any{"kept": true}, got.Data, "%s must survive a restart", tc.backend)
		} else {
			assert.Nil(t, got.Data, "%s must not survive a restart", tc.backend)
		}
		second.Stop()
	}
}

func TestSmoke_ConcurrentClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h := NewHarness(t.TempDir(), 0)
	defer h.Stop()

	node, err := h.StartNode(ctx, storage.Local)
	require.NoError(t, err)
	client := node.Client()

	const writers = 8
	const perWriter = 10

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < writers; w++ {
		g.Go(func() error {
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				if _, err := client.Create(gctx, map[string]any{"id": id, "writer": w}, ""); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	results, err := client.List(ctx)
	require.NoError(t, err)
	assert.Len(t, results, writers*perWriter)
}

func TestSmoke_QuotaRejection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h := NewHarness(t.TempDir(), 64)
	defer h.Stop()

	node, err := h.StartNode(ctx, storage.Local)
	require.NoError(t, err)
	client := node.Client()

	_, err = client.Create(ctx, "small", "k1")
	require.NoError(t, err)

	big := make([]any, 0, 32)
	for i := 0; i < 32; i++ {
		big = append(big, i)
	}
	_, err = client.Create(ctx, big, "k2")
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	got, err := client.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, got.Data)
}
