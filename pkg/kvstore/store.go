// Package kvstore is the local persistent key-value storage the cart and the
// wishlist keep their state in.
package kvstore

import "context"

type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
