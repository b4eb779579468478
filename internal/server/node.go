package server

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"recordstore/internal/adapter"
	"recordstore/internal/log"
)

// Node serves one adapter over gRPC.
type Node struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	logger     zerolog.Logger
}

// NewNode creates a node that will serve a on listenAddr.
func NewNode(listenAddr string, a *adapter.Adapter) *Node {
	logger := log.WithComponent("node").With().Str("backend", a.Backend()).Logger()

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(requestIDInterceptor(logger)))
	RegisterRecordStoreServer(grpcServer, NewServer(a))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable gRPC reflection for grpcurl
	reflection.Register(grpcServer)

	return &Node{
		listenAddr: listenAddr,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}
}

// Start listens on the configured address and serves until Stop.
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", n.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", n.listenAddr, err)
	}
	return n.Serve(lis)
}

// Serve serves on lis until Stop. A node stopped before it began serving
// returns nil.
func (n *Node) Serve(lis net.Listener) error {
	n.logger.Info().Str("addr", lis.Addr().String()).Msg("starting node")
	if err := n.grpcServer.Serve(lis); err != nil {
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop marks the node not serving and gracefully stops it.
func (n *Node) Stop() {
	n.logger.Info().Msg("stopping node")
	n.health.Shutdown()
	n.grpcServer.GracefulStop()
}
