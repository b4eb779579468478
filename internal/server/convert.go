package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"recordstore/internal/adapter"
)

// envelopeToStruct converts an adapter envelope to its protobuf form.
func envelopeToStruct(env adapter.Envelope) (*structpb.Struct, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("convert envelope: %w", err)
	}
	return out, nil
}

// structToEnvelope converts a protobuf envelope back to an adapter envelope.
func structToEnvelope(s *structpb.Struct) (adapter.Envelope, error) {
	var env adapter.Envelope
	if s == nil {
		return env, nil
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return env, fmt.Errorf("marshal envelope: %w", err)
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// toValue converts any JSON-serializable Go value to a protobuf Value.
func toValue(v any) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	out := &structpb.Value{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("convert record: %w", err)
	}
	return out, nil
}
