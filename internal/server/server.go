package server

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"recordstore/internal/adapter"
	"recordstore/internal/log"
	"recordstore/internal/storage"
)

// Server implements RecordStoreServer on top of an adapter.
type Server struct {
	adapter *adapter.Adapter
	logger  zerolog.Logger
}

// NewServer creates a new gRPC service instance.
func NewServer(a *adapter.Adapter) *Server {
	return &Server{
		adapter: a,
		logger:  log.WithComponent("server").With().Str("backend", a.Backend()).Logger(),
	}
}

// Create handles Create requests.
func (s *Server) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	record, ok := fields[fieldRecord]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}

	var opts []adapter.CreateOption
	if key := fields[fieldKey].GetStringValue(); key != "" {
		opts = append(opts, adapter.WithKey(key))
	}
	return s.reply(ctx, s.adapter.Create(record.AsInterface(), opts...))
}

// Get handles Get requests.
func (s *Server) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.reply(ctx, s.adapter.Get(req.GetValue()))
}

// List handles List requests.
func (s *Server) List(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply(ctx, s.adapter.List())
}

// Update handles Update requests.
func (s *Server) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	record, ok := fields[fieldRecord]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}
	return s.reply(ctx, s.adapter.Update(fields[fieldKey].GetStringValue(), record.AsInterface()))
}

// Remove handles Remove requests.
func (s *Server) Remove(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.reply(ctx, s.adapter.Remove(req.GetValue()))
}

// RemoveAll handles RemoveAll requests.
func (s *Server) RemoveAll(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply(ctx, s.adapter.RemoveAll())
}

// reply waits for the operation's settlement and converts it to a response.
func (s *Server) reply(ctx context.Context, r *adapter.Result) (*structpb.Struct, error) {
	env, err := r.Await(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	out, err := envelopeToStruct(env)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps a rejection to a gRPC status carrying the failure envelope
// as a detail.
func (s *Server) toStatus(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return status.FromContextError(ctx.Err()).Err()
	}

	code := codes.Internal
	switch {
	case errors.Is(err, adapter.ErrNoKey):
		code = codes.InvalidArgument
	case errors.Is(err, storage.ErrQuotaExceeded):
		code = codes.ResourceExhausted
	}

	var f *adapter.Failure
	if !errors.As(err, &f) {
		return status.Error(code, err.Error())
	}

	st := status.New(code, f.Err.Error())
	detail, convErr := envelopeToStruct(f.Envelope())
	if convErr != nil {
		l := log.WithContext(ctx, s.logger)
		l.Warn().Err(convErr).Msg("failed to encode failure envelope")
		return st.Err()
	}
	withDetail, detailErr := st.WithDetails(detail)
	if detailErr != nil {
		return st.Err()
	}
	return withDetail.Err()
}

// FailureFromError extracts the failure envelope carried by a status error
// returned from the RecordStore service.
func FailureFromError(err error) (adapter.Envelope, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return adapter.Envelope{}, false
	}
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			env, convErr := structToEnvelope(s)
			if convErr == nil {
				return env, true
			}
		}
	}
	return adapter.Envelope{}, false
}
