package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/pkg/kvstore"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type failingStorage struct{ failGet, failSet bool }

func (f failingStorage) Get(context.Context, string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("read failed")
	}
	return "", false, nil
}

func (f failingStorage) Set(context.Context, string, string) error {
	if f.failSet {
		return errors.New("write failed")
	}
	return nil
}

func (f failingStorage) Remove(context.Context, string) error { return nil }

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	svc := NewService(discard(), kv, "vogue-threads")

	assert.True(t, svc.Add(ctx, 12))
	assert.False(t, svc.Add(ctx, 12))
	assert.True(t, svc.Add(ctx, 3))

	assert.Equal(t, []int{12, 3}, svc.All(ctx))
	assert.Equal(t, 2, svc.Count(ctx))
	assert.True(t, svc.Contains(ctx, 3))

	raw, _, _ := kv.Get(ctx, "vogue-threads-wishlist")
	assert.Equal(t, "[12,3]", raw)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(discard(), kvstore.NewMemory(), "app")
	svc.Add(ctx, 5)
	svc.Add(ctx, 6)

	assert.True(t, svc.Remove(ctx, 5))
	assert.True(t, svc.Remove(ctx, 5))
	assert.False(t, svc.Contains(ctx, 5))
	assert.Equal(t, []int{6}, svc.All(ctx))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	svc := NewService(discard(), kv, "app")
	svc.Add(ctx, 1)

	svc.Clear(ctx)
	assert.Zero(t, svc.Count(ctx))
	_, ok, _ := kv.Get(ctx, "app-wishlist")
	assert.False(t, ok)
}

func TestCorruptOrDuplicatedStorage(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Set(ctx, "app-wishlist", "[4,4,2]"))
	svc := NewService(discard(), kv, "app")
	assert.Equal(t, []int{4, 2}, svc.All(ctx))

	require.NoError(t, kv.Set(ctx, "app-wishlist", "oops"))
	assert.Equal(t, []int{}, svc.All(ctx))
}

func TestStorageFailuresDegrade(t *testing.T) {
	ctx := context.Background()

	svc := NewService(discard(), failingStorage{failGet: true}, "app")
	assert.Equal(t, []int{}, svc.All(ctx))
	assert.False(t, svc.Contains(ctx, 1))

	svc = NewService(discard(), failingStorage{failSet: true}, "app")
	assert.True(t, svc.Add(ctx, 9))
	assert.False(t, svc.Add(ctx, 9))
	assert.Equal(t, []int{9}, svc.All(ctx))
}
