package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// idField names the record field a storage key falls back to.
const idField = "id"

// idFromJSON returns the storage key carried by a serialized record's id
// field. Falsy ids ("", 0, false, null) and non-object records yield "".
func idFromJSON(raw []byte) string {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return ""
	}

	id := root.Get(idField)
	switch id.Type {
	case gjson.String:
		return id.Str
	case gjson.Number:
		if id.Num == 0 {
			return ""
		}
		return id.Raw
	case gjson.True:
		return "true"
	case gjson.JSON:
		return id.Raw
	default:
		return ""
	}
}

// withID returns a decoded copy of record whose id field is key. Records
// that do not serialize to an object start from an empty object. record
// itself is never modified.
func withID(record any, key string) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	if !gjson.ParseBytes(raw).IsObject() {
		raw = []byte("{}")
	}

	stamped, err := sjson.SetBytes(raw, idField, key)
	if err != nil {
		return nil, fmt.Errorf("stamp id: %w", err)
	}

	var dup map[string]any
	if err := json.Unmarshal(stamped, &dup); err != nil {
		return nil, fmt.Errorf("decode stamped record: %w", err)
	}
	return dup, nil
}

// decodeValue parses a stored value as JSON, falling back to the raw string.
// Numbers decode to float64 except integer literals float64 cannot hold
// exactly, which stay json.Number.
func decodeValue(value string) any {
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return value
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return value
	}
	return normalizeNumbers(v)
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return exactNumber(t)
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	}
	return v
}

func exactNumber(n json.Number) any {
	f, err := n.Float64()
	if err != nil {
		return n
	}
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return f
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != s {
		return n
	}
	return f
}
