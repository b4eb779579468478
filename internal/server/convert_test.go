package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"recordstore/internal/adapter"
)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func mustStringValue(s string) *wrapperspb.StringValue {
	return wrapperspb.String(s)
}

func TestEnvelopeConversion(t *testing.T) {
	tests := []struct {
		name string
		env  adapter.Envelope
		want adapter.Envelope
	}{
		{
			name: "nil payload",
			env:  adapter.Envelope{},
			want: adapter.Envelope{},
		},
		{
			name: "string payload",
			env:  adapter.Envelope{Data: "not-json"},
			want: adapter.Envelope{Data: "not-json"},
		},
		{
			name: "record payload",
			env:  adapter.Envelope{Data: map[string]any{"id": "a", "v": 1}},
			want: adapter.Envelope{Data: map[string]any{"id": "a", "v": 1.0}},
		},
		{
			name: "list payload",
			env:  adapter.Envelope{Data: adapter.ListResult{Results: []any{"a", 2.0}}},
			want: adapter.Envelope{Data: map[string]any{"results": []any{"a", 2.0}}},
		},
		{
			name: "failure payload",
			env:  adapter.Envelope{Data: adapter.ErrorData{Error: "provide key or id"}},
			want: adapter.Envelope{Data: map[string]any{"error": "provide key or id"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := envelopeToStruct(tt.env)
			if err != nil {
				t.Fatalf("envelopeToStruct: %v", err)
			}
			got, err := structToEnvelope(s)
			if err != nil {
				t.Fatalf("structToEnvelope: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("envelope mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToValue_RejectsUnmarshalable(t *testing.T) {
	if _, err := toValue(map[string]any{"fn": func() {}}); err == nil {
		t.Error("expected error for unmarshalable record")
	}
}
