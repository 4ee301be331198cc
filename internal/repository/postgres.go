// Package repository provides the PostgreSQL backend for the ledger store.
// Accounts and records are stored as JSONB documents, one table per keyed
// collection plus the singleton stats row. Update transactions take an
// advisory lock so ledger mutations execute one at a time, matching the
// single-writer model the payment engines assume.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"streampay/internal/domain"
	"streampay/internal/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ledgerLockKey is the advisory lock id serializing ledger writers.
const ledgerLockKey = 7741001

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) View(ctx context.Context, fn func(ledger.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{ctx: ctx, tx: tx, readOnly: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Update(ctx context.Context, fn func(ledger.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return err
	}
	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

type pgTx struct {
	ctx      context.Context
	tx       pgx.Tx
	readOnly bool
}

var errReadOnly = errors.New("repository: write inside read-only transaction")

func (t *pgTx) getDoc(query, id string, out any) (bool, error) {
	var data []byte
	if err := t.tx.QueryRow(t.ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

func (t *pgTx) Room(id string) (*domain.RoomAccount, error) {
	q := `SELECT data FROM room_accounts WHERE room_id = $1`
	if !t.readOnly {
		q += ` FOR UPDATE`
	}
	var r domain.RoomAccount
	ok, err := t.getDoc(q, id, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func (t *pgTx) PutRoom(r *domain.RoomAccount) error {
	if t.readOnly {
		return errReadOnly
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx, `
		INSERT INTO room_accounts (room_id, data) VALUES ($1, $2)
		ON CONFLICT (room_id) DO UPDATE SET data = EXCLUDED.data
	`, r.RoomID, data)
	return err
}

func (t *pgTx) User(id string) (*domain.UserAccount, error) {
	q := `SELECT data FROM user_accounts WHERE user_id = $1`
	if !t.readOnly {
		q += ` FOR UPDATE`
	}
	var u domain.UserAccount
	ok, err := t.getDoc(q, id, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) PutUser(u *domain.UserAccount) error {
	if t.readOnly {
		return errReadOnly
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx, `
		INSERT INTO user_accounts (user_id, data) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data
	`, u.UserID, data)
	return err
}

func (t *pgTx) Record(id string) (*domain.PaymentRecord, error) {
	var rec domain.PaymentRecord
	ok, err := t.getDoc(`SELECT data FROM payment_records WHERE record_id = $1`, id, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (t *pgTx) Records(ids []string) ([]*domain.PaymentRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := t.tx.Query(t.ctx, `SELECT record_id, data FROM payment_records WHERE record_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.PaymentRecord, len(ids))
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var rec domain.PaymentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		byID[id] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// preserve queue order
	out := make([]*domain.PaymentRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("repository: dangling payment record %s", id)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (t *pgTx) PutRecord(rec *domain.PaymentRecord) error {
	if t.readOnly {
		return errReadOnly
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx, `
		INSERT INTO payment_records (record_id, room_id, data) VALUES ($1, $2, $3)
		ON CONFLICT (record_id) DO UPDATE SET data = EXCLUDED.data
	`, rec.ID, rec.RoomID, data)
	return err
}

func (t *pgTx) Stats() (domain.PaymentStats, error) {
	q := `SELECT data FROM payment_stats WHERE id = 1`
	if !t.readOnly {
		q += ` FOR UPDATE`
	}
	var data []byte
	var stats domain.PaymentStats
	if err := t.tx.QueryRow(t.ctx, q).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return stats, err
	}
	return stats, json.Unmarshal(data, &stats)
}

func (t *pgTx) PutStats(s domain.PaymentStats) error {
	if t.readOnly {
		return errReadOnly
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx, `
		INSERT INTO payment_stats (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, data)
	return err
}
