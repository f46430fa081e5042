package recordstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

type Memory struct {
	mu          sync.RWMutex
	collections map[string][]Record
	lastID      map[string]int64
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]Record), lastID: make(map[string]int64)}
}

func (m *Memory) Fetch(_ context.Context, collection string, q Query) ([]Record, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, r := range m.collections[collection] {
		if matches(r, q.Where) {
			out = append(out, r)
		}
	}
	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, ob := range q.OrderBy {
				c := compareField(out[i], out[j], ob.Field)
				if c == 0 {
					continue
				}
				if ob.Direction == Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	out = page(out, q.Offset, q.Limit)

	res := make([]Record, 0, len(out))
	for _, r := range out {
		res = append(res, project(r, q.Fields))
	}
	return res, nil
}

func (m *Memory) GetByID(_ context.Context, collection string, id int64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.collections[collection] {
		if rid, _ := r.ID(); rid == id {
			return maps.Clone(r), nil
		}
	}
	return nil, fmt.Errorf("%s %d: %w", collection, id, ErrNotFound)
}

func (m *Memory) Create(_ context.Context, collection string, fields Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := maps.Clone(fields)
	if r == nil {
		r = Record{}
	}
	id, ok := r.ID()
	if !ok {
		id = m.lastID[collection] + 1
	}
	for _, existing := range m.collections[collection] {
		if rid, _ := existing.ID(); rid == id {
			return nil, fmt.Errorf("%s %d: %w", collection, id, ErrDuplicateID)
		}
	}
	m.lastID[collection] = max(m.lastID[collection], id)
	r[IDField] = id
	m.collections[collection] = append(m.collections[collection], r)
	return maps.Clone(r), nil
}

func (m *Memory) Update(_ context.Context, collection string, fields Record) (Record, error) {
	id, ok := fields.ID()
	if !ok {
		return nil, ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.collections[collection] {
		if rid, _ := r.ID(); rid != id {
			continue
		}
		for k, v := range fields {
			if k != IDField {
				r[k] = v
			}
		}
		return maps.Clone(r), nil
	}
	return nil, fmt.Errorf("%s %d: %w", collection, id, ErrNotFound)
}

func validateQuery(q Query) error {
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("%w: negative paging", ErrInvalidQuery)
	}
	for _, ob := range q.OrderBy {
		if ob.Direction != "" && ob.Direction != Asc && ob.Direction != Desc {
			return fmt.Errorf("%w: sort direction %q", ErrInvalidQuery, ob.Direction)
		}
	}
	return nil
}

func matches(r Record, where []Condition) bool {
	for _, c := range where {
		if !slices.Contains(c.Values, String(r, c.Field)) {
			return false
		}
	}
	return true
}

// compareField orders numerically when both values are numbers and
// lexically (case-insensitive) otherwise.
func compareField(a, b Record, field string) int {
	as, bs := String(a, field), String(b, field)
	ad, aerr := decimal.NewFromString(as)
	bd, berr := decimal.NewFromString(bs)
	if aerr == nil && berr == nil {
		return ad.Cmp(bd)
	}
	return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
}

func page(rs []Record, offset, limit int) []Record {
	if offset >= len(rs) {
		return nil
	}
	rs = rs[offset:]
	if limit > 0 && limit < len(rs) {
		rs = rs[:limit]
	}
	return rs
}

func project(r Record, fields []string) Record {
	if len(fields) == 0 {
		return maps.Clone(r)
	}
	out := Record{IDField: r[IDField]}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}
