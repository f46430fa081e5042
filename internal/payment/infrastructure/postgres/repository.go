package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// Ledger appends one row per payment attempt. Failed attempts have no
// transaction id.
type Ledger struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewLedger(log *slog.Logger, pool *pgxpool.Pool) *Ledger {
	return &Ledger{log: log, pool: pool}
}

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		transaction_id TEXT UNIQUE,
		amount NUMERIC NOT NULL,
		card_last4 TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

func (l *Ledger) Record(ctx context.Context, p domain.Payment, msg outbox.Message) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var txnID *string
	if p.TransactionID != "" {
		txnID = &p.TransactionID
	}
	_, err = tx.Exec(ctx, `INSERT INTO payments (transaction_id, amount, card_last4, status, reason, created_at)
		VALUES ($1,$2::numeric,$3,$4,$5,$6)`,
		txnID, p.Amount.String(), p.CardLast4, string(p.Status), p.Reason, p.CreatedAt)
	if err != nil {
		l.log.Error("payment insert failed", "transaction_id", p.TransactionID, "status", p.Status, "err", err)
		return err
	}
	if err := outbox.Insert(ctx, tx, msg); err != nil {
		l.log.Error("payment outbox insert failed", "transaction_id", p.TransactionID, "type", msg.Type, "err", err)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	l.log.Debug("payment recorded", "transaction_id", p.TransactionID, "status", p.Status)
	return nil
}
