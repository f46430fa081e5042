// Package recordstore talks to the generic record backend that owns the
// catalog: named collections of records addressed by an integer Id, with
// custom fields suffixed "_c".
package recordstore

import (
	"context"
	"errors"
)

// IDField is the system field holding a record's identifier.
const IDField = "Id"

var (
	ErrNotFound     = errors.New("record not found")
	ErrMissingID    = errors.New("record has no Id")
	ErrDuplicateID  = errors.New("record Id already taken")
	ErrInvalidQuery = errors.New("invalid query")
)

type Record map[string]any

func (r Record) ID() (int64, bool) {
	return Int(r, IDField)
}

type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

type OrderBy struct {
	Field     string
	Direction SortDirection
}

// Condition matches records whose Field equals one of Values.
type Condition struct {
	Field  string
	Values []string
}

type Query struct {
	// Fields limits the returned fields; empty means all. Id is always returned.
	Fields  []string
	Where   []Condition
	OrderBy []OrderBy
	Limit   int
	Offset  int
}

type Client interface {
	Fetch(ctx context.Context, collection string, q Query) ([]Record, error)
	GetByID(ctx context.Context, collection string, id int64) (Record, error)
	// Create stores fields as a new record and returns it with its Id. Ids
	// are unique within a collection; an explicit Id that is already taken
	// fails with ErrDuplicateID.
	Create(ctx context.Context, collection string, fields Record) (Record, error)
	// Update merges fields into the record named by fields["Id"].
	Update(ctx context.Context, collection string, fields Record) (Record, error)
}
