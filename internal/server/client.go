package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"recordstore/internal/adapter"
)

// Client is a RecordStore client. Rejections come back as gRPC status
// errors; FailureFromError recovers their envelope.
type Client struct {
	conn grpc.ClientConnInterface
}

// Dial connects to a node at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return NewClient(conn), conn, nil
}

// NewClient wraps an existing connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, in any) (adapter.Envelope, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return adapter.Envelope{}, err
	}
	return structToEnvelope(out)
}

// Create stores record under key, or under its id when key is empty.
func (c *Client) Create(ctx context.Context, record any, key string) (adapter.Envelope, error) {
	req, err := recordRequest(record, key)
	if err != nil {
		return adapter.Envelope{}, err
	}
	return c.invoke(ctx, MethodCreate, req)
}

// Get fetches the value stored at key.
func (c *Client) Get(ctx context.Context, key string) (adapter.Envelope, error) {
	return c.invoke(ctx, MethodGet, wrapperspb.String(key))
}

// List returns every stored value.
func (c *Client) List(ctx context.Context) ([]any, error) {
	env, err := c.invoke(ctx, MethodList, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected list payload %T", env.Data)
	}
	results, _ := data["results"].([]any)
	if results == nil {
		results = []any{}
	}
	return results, nil
}

// Update stores record with its id set to key.
func (c *Client) Update(ctx context.Context, key string, record any) (adapter.Envelope, error) {
	req, err := recordRequest(record, key)
	if err != nil {
		return adapter.Envelope{}, err
	}
	return c.invoke(ctx, MethodUpdate, req)
}

// Remove deletes key.
func (c *Client) Remove(ctx context.Context, key string) error {
	_, err := c.invoke(ctx, MethodRemove, wrapperspb.String(key))
	return err
}

// RemoveAll clears the namespace.
func (c *Client) RemoveAll(ctx context.Context) error {
	_, err := c.invoke(ctx, MethodRemoveAll, &emptypb.Empty{})
	return err
}

func recordRequest(record any, key string) (*structpb.Struct, error) {
	value, err := toValue(record)
	if err != nil {
		return nil, err
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{fieldRecord: value}}
	if key != "" {
		req.Fields[fieldKey] = structpb.NewStringValue(key)
	}
	return req, nil
}
