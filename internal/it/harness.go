// Package it holds end-to-end tests that run full nodes over TCP.
package it

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"recordstore/internal/adapter"
	"recordstore/internal/config"
	"recordstore/internal/server"
	"recordstore/internal/storage"
)

// Harness starts and stops nodes that share a data directory.
type Harness struct {
	dataDir string
	quota   int64

	mu    sync.Mutex
	nodes []*Node
}

// Node is one running node with its own host environment and client.
type Node struct {
	Backend string
	Addr    string

	host    *storage.Host
	adapter *adapter.Adapter
	node    *server.Node
	conn    *grpc.ClientConn
	client  *server.Client
	served  chan error
	stop    sync.Once
}

// NewHarness creates a harness whose nodes keep durable data in dataDir.
func NewHarness(dataDir string, quota int64) *Harness {
	return &Harness{dataDir: dataDir, quota: quota}
}

// StartNode starts a node on a free loopback port, built the same way the
// daemon builds it, and waits until it reports serving.
func (h *Harness) StartNode(ctx context.Context, backend string) (*Node, error) {
	host := storage.NewHost(storage.Options{DataDir: h.dataDir, QuotaBytes: h.quota})

	sel, err := config.NewSelector(host).SelectBackend(backend)
	if err != nil {
		_ = host.Close()
		return nil, err
	}
	a, err := sel.Build()
	if err != nil {
		_ = host.Close()
		return nil, err
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		a.Close()
		_ = host.Close()
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	n := &Node{
		Backend: backend,
		Addr:    lis.Addr().String(),
		host:    host,
		adapter: a,
		node:    server.NewNode(lis.Addr().String(), a),
		served:  make(chan error, 1),
	}
	go func() { n.served <- n.node.Serve(lis) }()

	client, conn, err := server.Dial(n.Addr)
	if err != nil {
		n.Stop()
		return nil, err
	}
	n.client, n.conn = client, conn

	if err := waitForReady(ctx, n, 10*time.Second); err != nil {
		n.Stop()
		return nil, fmt.Errorf("node %s failed to become ready: %w", n.Addr, err)
	}

	h.mu.Lock()
	h.nodes = append(h.nodes, n)
	h.mu.Unlock()
	return n, nil
}

// waitForReady polls the health service until the node is serving.
func waitForReady(ctx context.Context, n *Node, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	health := healthpb.NewHealthClient(n.conn)
	for {
		checkCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := health.Check(checkCtx, &healthpb.HealthCheckRequest{Service: server.ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return errors.New("timeout waiting for node to be ready")
			}
		}
	}
}

// Client returns the node's RecordStore client.
func (n *Node) Client() *server.Client {
	return n.client
}

// Stop shuts the node down and releases its host environment.
func (n *Node) Stop() {
	n.stop.Do(func() {
		if n.conn != nil {
			_ = n.conn.Close()
		}
		n.node.Stop()
		<-n.served
		n.adapter.Close()
		_ = n.host.Close()
	})
}

// Stop stops every node the harness started.
func (h *Harness) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, n := range h.nodes {
		n.Stop()
	}
	h.nodes = nil
}
