package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "recordstore.v1.RecordStore"

// Method names.
const (
	MethodCreate    = "Create"
	MethodGet       = "Get"
	MethodList      = "List"
	MethodUpdate    = "Update"
	MethodRemove    = "Remove"
	MethodRemoveAll = "RemoveAll"
)

// Request fields of Create and Update.
const (
	fieldRecord = "record"
	fieldKey    = "key"
)

// RecordStoreServer is the server API of the RecordStore service. Every
// response is an envelope struct {"data": ...}.
//
// Create takes {"record": <value>, "key": <optional string>} and Update takes
// {"key": <string>, "record": <value>}.
type RecordStoreServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	List(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Remove(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	RemoveAll(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes the RecordStore service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodCreate, Handler: unary(MethodCreate, RecordStoreServer.Create)},
		{MethodName: MethodGet, Handler: unary(MethodGet, RecordStoreServer.Get)},
		{MethodName: MethodList, Handler: unary(MethodList, RecordStoreServer.List)},
		{MethodName: MethodUpdate, Handler: unary(MethodUpdate, RecordStoreServer.Update)},
		{MethodName: MethodRemove, Handler: unary(MethodRemove, RecordStoreServer.Remove)},
		{MethodName: MethodRemoveAll, Handler: unary(MethodRemoveAll, RecordStoreServer.RemoveAll)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recordstore/v1/recordstore.proto",
}

// RegisterRecordStoreServer registers srv with s.
func RegisterRecordStoreServer(s grpc.ServiceRegistrar, srv RecordStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the method handler that decodes a Req and dispatches to call,
// through the server's interceptor chain if there is one.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](method string, call func(RecordStoreServer, context.Context, PReq) (*structpb.Struct, error)) grpc.MethodHandler {
	name := fullMethod(method)

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		impl := srv.(RecordStoreServer)
		if interceptor == nil {
			return call(impl, ctx, in)
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(impl, ctx, req.(PReq))
		}
		return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: name}, handler)
	}
}
