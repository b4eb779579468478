// Package server exposes an adapter over gRPC as the recordstore.v1.RecordStore
// service. Messages are protobuf well-known types: requests are Struct,
// StringValue or Empty, and every response is an envelope Struct. Rejections
// become status errors that carry the failure envelope as a detail.
package server
