// Package jsonstore persists whole JSON documents by collection name. The
// application keeps its working set in memory; this package is the durable
// mirror underneath it.
package jsonstore

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned by Load when a collection has never been saved
var ErrNotFound = errors.New("document not found")

// Repository loads and saves whole documents keyed by collection name.
// Implementations must be safe for concurrent use across different names;
// callers serialise saves of the same name through a Mirror.
type Repository interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
}

// Encode renders a collection document in the on-disk format
func Encode(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Decode parses a collection document into v
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
