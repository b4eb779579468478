package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"recordstore/internal/log"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "x-request-id"

// requestIDInterceptor tags each call with the caller's request ID, or a
// fresh one, and logs its outcome.
func requestIDInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		rid := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDHeader); len(vals) > 0 {
				rid = vals[0]
			}
		}
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx = log.ContextWithRequestID(ctx, rid)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, rid))

		started := time.Now()
		resp, err := handler(ctx, req)

		l := log.WithContext(ctx, logger)
		ev := l.Debug()
		if err != nil {
			ev = l.Warn().Err(err)
		}
		ev.Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(started)).
			Msg("rpc completed")
		return resp, err
	}
}
