// Package storage provides the string-keyed namespaces records are persisted
// in. A Namespace mirrors the Web Storage primitive: synchronous, string-only,
// flat. Native builds back localStorage with a SQLite file and sessionStorage
// with process memory; js/wasm builds bind the browser's own objects.
package storage
