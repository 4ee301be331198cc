// Package ledger defines the transactional store the payment engines run
// against. The store is three keyed collections (rooms, users, payment
// records) plus the single global stats register. Mutating operations are
// serialized by the store: everything written inside one Update commits
// together or not at all.
package ledger

import (
	"context"

	"streampay/internal/domain"
)

// Tx is a point-in-time view of the ledger. Getters return (nil, nil) when
// the key is absent. Values returned by getters are private copies; they
// become visible to later reads only after a Put.
type Tx interface {
	Room(id string) (*domain.RoomAccount, error)
	PutRoom(r *domain.RoomAccount) error

	User(id string) (*domain.UserAccount, error)
	PutUser(u *domain.UserAccount) error

	Record(id string) (*domain.PaymentRecord, error)
	// Records resolves a queue of record ids in order. A dangling id is a
	// store corruption and surfaces as an error.
	Records(ids []string) ([]*domain.PaymentRecord, error)
	PutRecord(rec *domain.PaymentRecord) error

	Stats() (domain.PaymentStats, error)
	PutStats(s domain.PaymentStats) error
}

type Store interface {
	// View runs fn against a read-only snapshot.
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn and atomically commits its writes iff fn returns nil.
	Update(ctx context.Context, fn func(Tx) error) error
	Close()
}
