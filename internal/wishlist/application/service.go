package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

func StorageKey(app string) string { return app + "-wishlist" }

// Service keeps saved product ids. The ids are stored as an ordered JSON
// array but behave as a set. Storage failures are logged and degrade the
// same way as the cart's: reads become empty, writes stay in memory.
type Service struct {
	log   *slog.Logger
	store Storage
	key   string

	mu  sync.Mutex
	ids []int
	// dirty marks ids as newer than storage after a failed write.
	dirty bool
}

func NewService(log *slog.Logger, store Storage, app string) *Service {
	return &Service{log: log, store: store, key: StorageKey(app)}
}

func (s *Service) read(ctx context.Context) []int {
	if s.dirty {
		return append([]int{}, s.ids...)
	}
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.Error("wishlist load failed", "key", s.key, "err", err)
		return append([]int{}, s.ids...)
	}
	if !ok || raw == "" {
		return []int{}
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.Error("wishlist storage corrupt, starting empty", "key", s.key, "err", err)
		return []int{}
	}
	return dedupe(ids)
}

func (s *Service) write(ctx context.Context, ids []int) {
	s.ids = ids
	b, err := json.Marshal(ids)
	if err != nil {
		s.log.Error("wishlist encode failed", "err", err)
		s.dirty = true
		return
	}
	if err := s.store.Set(ctx, s.key, string(b)); err != nil {
		s.log.Error("wishlist save failed, keeping in memory", "key", s.key, "err", err)
		s.dirty = true
		return
	}
	s.dirty = false
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) All(ctx context.Context) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Add reports whether productID was newly added.
func (s *Service) Add(ctx context.Context, productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.read(ctx)
	if slices.Contains(ids, productID) {
		return false
	}
	s.write(ctx, append(ids, productID))
	return true
}

// Remove is idempotent and always reports true.
func (s *Service) Remove(ctx context.Context, productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.read(ctx)
	s.write(ctx, slices.DeleteFunc(ids, func(id int) bool { return id == productID }))
	return true
}

func (s *Service) Contains(ctx context.Context, productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.read(ctx), productID)
}

func (s *Service) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.read(ctx))
}

func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	if err := s.store.Remove(ctx, s.key); err != nil {
		s.log.Error("wishlist clear failed, keeping in memory", "key", s.key, "err", err)
		s.ids = []int{}
		s.dirty = true
		return
	}
	s.dirty = false
}
