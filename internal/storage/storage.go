// Package storage provides the durable key→value store backing the ledger.
//
// The ledger persists each top-level state slice (months, goals, savings,
// history, templates, theme) under its own key as a JSON document. The store
// itself is schema-agnostic: it moves opaque values and leaves encoding and
// fallback-on-corruption policy to the caller.
package storage

import "context"

// Store is durable key→value storage. Get reports whether the key exists;
// a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
