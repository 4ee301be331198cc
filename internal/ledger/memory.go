package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"streampay/internal/domain"
)

var errReadOnly = errors.New("ledger: write inside read-only transaction")

// MemoryStore keeps the whole ledger in process memory. It is the default
// backend and the one the test suite runs against. Writes are staged per
// transaction and applied only when the transaction function succeeds.
type MemoryStore struct {
	mu      sync.RWMutex
	rooms   map[string]*domain.RoomAccount
	users   map[string]*domain.UserAccount
	records map[string]*domain.PaymentRecord
	stats   domain.PaymentStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[string]*domain.RoomAccount),
		users:   make(map[string]*domain.UserAccount),
		records: make(map[string]*domain.PaymentRecord),
	}
}

func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{store: s, readOnly: true})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:   s,
		rooms:   make(map[string]*domain.RoomAccount),
		users:   make(map[string]*domain.UserAccount),
		records: make(map[string]*domain.PaymentRecord),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) Close() {}

type memTx struct {
	store    *MemoryStore
	readOnly bool

	// staged writes, applied on commit
	rooms   map[string]*domain.RoomAccount
	users   map[string]*domain.UserAccount
	records map[string]*domain.PaymentRecord
	stats   *domain.PaymentStats
}

func (tx *memTx) Room(id string) (*domain.RoomAccount, error) {
	if r, ok := tx.rooms[id]; ok {
		return r.Clone(), nil
	}
	if r, ok := tx.store.rooms[id]; ok {
		return r.Clone(), nil
	}
	return nil, nil
}

func (tx *memTx) PutRoom(r *domain.RoomAccount) error {
	if tx.readOnly {
		return errReadOnly
	}
	tx.rooms[r.RoomID] = r.Clone()
	return nil
}

func (tx *memTx) User(id string) (*domain.UserAccount, error) {
	if u, ok := tx.users[id]; ok {
		return u.Clone(), nil
	}
	if u, ok := tx.store.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, nil
}

func (tx *memTx) PutUser(u *domain.UserAccount) error {
	if tx.readOnly {
		return errReadOnly
	}
	tx.users[u.UserID] = u.Clone()
	return nil
}

func (tx *memTx) Record(id string) (*domain.PaymentRecord, error) {
	if rec, ok := tx.records[id]; ok {
		return rec.Clone(), nil
	}
	if rec, ok := tx.store.records[id]; ok {
		return rec.Clone(), nil
	}
	return nil, nil
}

func (tx *memTx) Records(ids []string) ([]*domain.PaymentRecord, error) {
	out := make([]*domain.PaymentRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := tx.Record(id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, fmt.Errorf("ledger: dangling payment record %s", id)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (tx *memTx) PutRecord(rec *domain.PaymentRecord) error {
	if tx.readOnly {
		return errReadOnly
	}
	tx.records[rec.ID] = rec.Clone()
	return nil
}

func (tx *memTx) Stats() (domain.PaymentStats, error) {
	if tx.stats != nil {
		return *tx.stats, nil
	}
	return tx.store.stats, nil
}

func (tx *memTx) PutStats(s domain.PaymentStats) error {
	if tx.readOnly {
		return errReadOnly
	}
	tx.stats = &s
	return nil
}

func (tx *memTx) commit() {
	for id, r := range tx.rooms {
		tx.store.rooms[id] = r
	}
	for id, u := range tx.users {
		tx.store.users[id] = u
	}
	for id, rec := range tx.records {
		tx.store.records[id] = rec
	}
	if tx.stats != nil {
		tx.store.stats = *tx.stats
	}
}
