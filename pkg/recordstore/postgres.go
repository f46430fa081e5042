package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Postgres keeps every collection in one table with the custom fields in a
// JSONB column. Ids are numbered per collection, so a product and a category
// may share an Id.
type Postgres struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewPostgres(log *slog.Logger, pool *pgxpool.Pool) *Postgres {
	return &Postgres{log: log, pool: pool}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	return err
}

const schema = `CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id BIGINT NOT NULL,
	fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

const (
	lockCollection = `SELECT pg_advisory_xact_lock(hashtext($1::text))`
	insertWithID   = `INSERT INTO records (collection, id, fields) VALUES ($1, $2, $3::jsonb) RETURNING id`
	// insertNext takes the next Id of the collection; callers hold the
	// collection lock so two inserts never pick the same one.
	insertNext = `INSERT INTO records (collection, id, fields)
		SELECT $1::text, COALESCE(max(id), 0) + 1, $2::jsonb FROM records WHERE collection = $1::text
		RETURNING id`
)

func (p *Postgres) Fetch(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	sql, args := buildFetch(collection, q)
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		p.log.Error("record fetch failed", "collection", collection, "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		r, err := decodeFields(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, project(r, q.Fields))
	}
	return out, rows.Err()
}

func buildFetch(collection string, q Query) (string, []any) {
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT id, fields FROM records WHERE collection = $1`)
	for _, c := range q.Where {
		if c.Field == IDField {
			args = append(args, c.Values)
			fmt.Fprintf(&sb, ` AND id::text = ANY($%d)`, len(args))
			continue
		}
		args = append(args, c.Field, c.Values)
		fmt.Fprintf(&sb, ` AND fields->>$%d = ANY($%d)`, len(args)-1, len(args))
	}
	sb.WriteString(` ORDER BY `)
	for _, ob := range q.OrderBy {
		dir := Asc
		if ob.Direction == Desc {
			dir = Desc
		}
		if ob.Field == IDField {
			fmt.Fprintf(&sb, `id %s, `, dir)
			continue
		}
		args = append(args, ob.Field)
		fmt.Fprintf(&sb, `fields->>$%d %s, `, len(args), dir)
	}
	sb.WriteString(`id ASC`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}
	return sb.String(), args
}

func (p *Postgres) GetByID(ctx context.Context, collection string, id int64) (Record, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT fields FROM records WHERE collection=$1 AND id=$2`, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeFields(id, raw)
}

func (p *Postgres) Create(ctx context.Context, collection string, fields Record) (Record, error) {
	payload, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, lockCollection, collection); err != nil {
		return nil, err
	}
	var id int64
	if explicit, ok := fields.ID(); ok {
		err = tx.QueryRow(ctx, insertWithID, collection, explicit, payload).Scan(&id)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%s %d: %w", collection, explicit, ErrDuplicateID)
		}
	} else {
		err = tx.QueryRow(ctx, insertNext, collection, payload).Scan(&id)
	}
	if err != nil {
		p.log.Error("record create failed", "collection", collection, "err", err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		p.log.Error("record create commit failed", "collection", collection, "err", err)
		return nil, err
	}
	return decodeFields(id, payload)
}

func (p *Postgres) Update(ctx context.Context, collection string, fields Record) (Record, error) {
	id, ok := fields.ID()
	if !ok {
		return nil, ErrMissingID
	}
	payload, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = p.pool.QueryRow(ctx, `UPDATE records SET fields = fields || $3::jsonb, updated_at = now()
		WHERE collection=$1 AND id=$2 RETURNING fields`, collection, id, payload).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		p.log.Error("record update failed", "collection", collection, "id", id, "err", err)
		return nil, err
	}
	return decodeFields(id, raw)
}

func encodeFields(fields Record) ([]byte, error) {
	body := make(Record, len(fields))
	for k, v := range fields {
		if k != IDField {
			body[k] = v
		}
	}
	return json.Marshal(body)
}

func decodeFields(id int64, raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	r := Record{}
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode record %d: %w", id, err)
	}
	r[IDField] = id
	return r, nil
}
