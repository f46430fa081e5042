package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	number TEXT NOT NULL UNIQUE,
	placed_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	total NUMERIC NOT NULL,
	shipping JSONB NOT NULL,
	transaction_id TEXT NOT NULL,
	card_last4 TEXT NOT NULL,
	carrier TEXT NOT NULL,
	tracking_number TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items (
	order_id BIGINT NOT NULL REFERENCES orders(id),
	position INT NOT NULL,
	line_id TEXT NOT NULL,
	product_id INT NOT NULL,
	product_name TEXT NOT NULL,
	price NUMERIC NOT NULL,
	quantity INT NOT NULL,
	selected_size TEXT NOT NULL DEFAULT '',
	selected_color TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (order_id, position)
);
CREATE TABLE IF NOT EXISTS tracking_events (
	id BIGSERIAL PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id),
	occurred_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	location TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tracking_events_order_idx ON tracking_events (order_id, id);
`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *Repository) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('orders', 'id'))`).Scan(&id)
	return id, err
}

func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, msg outbox.Message) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, number, placed_at, status, total, shipping, transaction_id, card_last4, carrier, tracking_number)
		VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10)`,
		o.ID, o.Number, o.PlacedAt, string(o.Status), o.Total.String(), o.ShippingAddress,
		o.Payment.TransactionID, o.Payment.CardLast4, o.Tracking.Carrier, o.Tracking.TrackingNumber)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, position, line_id, product_id, product_name, price, quantity, selected_size, selected_color, image)
			VALUES ($1,$2,$3,$4,$5,$6::numeric,$7,$8,$9,$10)`,
			o.ID, i, item.ID, item.ProductID, item.ProductName, item.Price.String(), item.Quantity,
			item.SelectedSize, item.SelectedColor, item.Image)
	}
	for _, ev := range o.Tracking.Events {
		batch.Queue(`INSERT INTO tracking_events (order_id, occurred_at, status, location) VALUES ($1,$2,$3,$4)`,
			o.ID, ev.Date, ev.Status, ev.Location)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err := outbox.Insert(ctx, tx, msg); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) AppendStatus(ctx context.Context, id int64, status domain.OrderStatus, ev domain.TrackingEvent, msg outbox.Message) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("Order not found")
	}
	_, err = tx.Exec(ctx, `INSERT INTO tracking_events (order_id, occurred_at, status, location) VALUES ($1,$2,$3,$4)`,
		id, ev.Date, ev.Status, ev.Location)
	if err != nil {
		return err
	}
	if err := outbox.Insert(ctx, tx, msg); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Order, error) {
	orders, err := r.load(ctx, `WHERE id = $1`, id)
	if err != nil {
		return domain.Order{}, err
	}
	if len(orders) == 0 {
		return domain.Order{}, apperr.NotFound("Order not found")
	}
	return orders[0], nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	return r.load(ctx, `ORDER BY placed_at DESC, id DESC`)
}

// load reads orders selected by clause, then their items and events with
// one query each.
func (r *Repository) load(ctx context.Context, clause string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, number, placed_at, status, total::text, shipping, transaction_id, card_last4, carrier, tracking_number
		FROM orders `+clause, args...)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	index := map[int64]int{}
	for rows.Next() {
		var o domain.Order
		var status, total string
		if err := rows.Scan(&o.ID, &o.Number, &o.PlacedAt, &status, &total, &o.ShippingAddress,
			&o.Payment.TransactionID, &o.Payment.CardLast4, &o.Tracking.Carrier, &o.Tracking.TrackingNumber); err != nil {
			rows.Close()
			return nil, err
		}
		o.Status = domain.OrderStatus(status)
		if o.Total, err = decimal.NewFromString(total); err != nil {
			rows.Close()
			return nil, err
		}
		o.PlacedAt = o.PlacedAt.UTC()
		o.Items = []domain.OrderItem{}
		o.Tracking.Events = []domain.TrackingEvent{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	if err := r.loadItems(ctx, ids, orders, index); err != nil {
		return nil, err
	}
	if err := r.loadEvents(ctx, ids, orders, index); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, ids []int64, orders []domain.Order, index map[int64]int) error {
	rows, err := r.pool.Query(ctx, `SELECT order_id, line_id, product_id, product_name, price::text, quantity, selected_size, selected_color, image
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID int64
		var price string
		var it domain.OrderItem
		if err := rows.Scan(&orderID, &it.ID, &it.ProductID, &it.ProductName, &price, &it.Quantity,
			&it.SelectedSize, &it.SelectedColor, &it.Image); err != nil {
			return err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return err
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return rows.Err()
}

func (r *Repository) loadEvents(ctx context.Context, ids []int64, orders []domain.Order, index map[int64]int) error {
	rows, err := r.pool.Query(ctx, `SELECT order_id, occurred_at, status, location
		FROM tracking_events WHERE order_id = ANY($1) ORDER BY order_id, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID int64
		var at time.Time
		var ev domain.TrackingEvent
		if err := rows.Scan(&orderID, &at, &ev.Status, &ev.Location); err != nil {
			return err
		}
		ev.Date = at.UTC()
		i := index[orderID]
		orders[i].Tracking.Events = append(orders[i].Tracking.Events, ev)
	}
	return rows.Err()
}
