package ledger

import (
	"context"
	"errors"
	"testing"

	"streampay/internal/domain"
)

func TestMemoryStoreUpdateCommits(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Update(ctx, func(tx Tx) error {
		return tx.PutRoom(&domain.RoomAccount{RoomID: "r1", Host: "h1"})
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.View(ctx, func(tx Tx) error {
		room, err := tx.Room("r1")
		if err != nil {
			return err
		}
		if room == nil || room.Host != "h1" {
			t.Fatalf("room not committed: %+v", room)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStoreUpdateRollsBackOnError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx Tx) error {
		if err := tx.PutUser(&domain.UserAccount{UserID: "u1", Balance: domain.U128(100)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	s.View(ctx, func(tx Tx) error {
		user, _ := tx.User("u1")
		if user != nil {
			t.Fatal("failed update must not leave writes behind")
		}
		return nil
	})
}

func TestMemoryStoreMissingReturnsNil(t *testing.T) {
	s := NewMemoryStore()

	s.View(context.Background(), func(tx Tx) error {
		room, err := tx.Room("nope")
		if err != nil || room != nil {
			t.Fatalf("missing room: got %+v, %v", room, err)
		}
		user, err := tx.User("nope")
		if err != nil || user != nil {
			t.Fatalf("missing user: got %+v, %v", user, err)
		}
		rec, err := tx.Record("nope")
		if err != nil || rec != nil {
			t.Fatalf("missing record: got %+v, %v", rec, err)
		}
		return nil
	})
}

func TestMemoryStoreViewRejectsWrites(t *testing.T) {
	s := NewMemoryStore()

	err := s.View(context.Background(), func(tx Tx) error {
		return tx.PutRoom(&domain.RoomAccount{RoomID: "r1"})
	})
	if err == nil {
		t.Fatal("write inside View must fail")
	}
}

func TestMemoryStoreRecordsPreserveOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ids := []string{"c", "a", "b"}
	s.Update(ctx, func(tx Tx) error {
		for _, id := range ids {
			rec := &domain.PaymentRecord{
				ID:   id,
				Kind: domain.RecordKindTip,
				Tip:  &domain.Tip{From: "u1", Amount: 1},
			}
			if err := tx.PutRecord(rec); err != nil {
				return err
			}
		}
		return nil
	})

	s.View(ctx, func(tx Tx) error {
		recs, err := tx.Records(ids)
		if err != nil {
			t.Fatal(err)
		}
		for i, rec := range recs {
			if rec.ID != ids[i] {
				t.Fatalf("position %d: got %s, want %s", i, rec.ID, ids[i])
			}
		}
		return nil
	})
}

func TestMemoryStoreRecordsDanglingID(t *testing.T) {
	s := NewMemoryStore()

	err := s.View(context.Background(), func(tx Tx) error {
		_, err := tx.Records([]string{"ghost"})
		return err
	})
	if err == nil {
		t.Fatal("dangling record id must error")
	}
}

func TestMemoryStoreReadsAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Update(ctx, func(tx Tx) error {
		return tx.PutUser(&domain.UserAccount{UserID: "u1", Balance: domain.U128(50)})
	})

	// mutating a returned value must not touch the store
	s.View(ctx, func(tx Tx) error {
		user, _ := tx.User("u1")
		user.Balance = domain.U128(999)
		return nil
	})

	s.View(ctx, func(tx Tx) error {
		user, _ := tx.User("u1")
		if user.Balance.Cmp(domain.U128(50)) != 0 {
			t.Fatalf("store mutated through a read: %s", user.Balance)
		}
		return nil
	})
}

func TestMemoryStoreContextCancelled(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Update(ctx, func(Tx) error { return nil }); err == nil {
		t.Fatal("cancelled context must fail Update")
	}
	if err := s.View(ctx, func(Tx) error { return nil }); err == nil {
		t.Fatal("cancelled context must fail View")
	}
}
