package service

import (
	"context"
	"errors"
	"testing"

	"streampay/internal/domain"
	"streampay/internal/ledger"
)

// fixture with two viewers tipping and buying tiers in one room.
func seedQueryFixture(t *testing.T) (*ledger.MemoryStore, *PaymentService) {
	t.Helper()
	store := ledger.NewMemoryStore()
	admin := NewAdminService(store)
	payments := NewPaymentService(store)
	ctx := context.Background()

	settings := domain.DefaultRoomSettings()
	settings.MinTip = 25
	if _, err := admin.CreateRoom(ctx, "host", "room-1", &settings); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Deposit(ctx, "alice", 10_000); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Deposit(ctx, "bob", 10_000); err != nil {
		t.Fatal(err)
	}

	// raise thresholds so nothing auto-settles under the fixture
	bigQueue := domain.UserPreferences{
		DefaultTip:          100,
		AutoSettleThreshold: domain.MaxUint128,
		MaxPending:          100,
	}
	admin.UpdatePreferences(ctx, "alice", bigQueue)
	admin.UpdatePreferences(ctx, "bob", bigQueue)

	payments.SendTip(ctx, "alice", "room-1", 100, "hi", false)
	payments.SendTip(ctx, "alice", "room-1", 200, "", true)
	payments.SendTip(ctx, "bob", "room-1", 50, "", false)
	payments.PayAccessFee(ctx, "alice", "room-1", domain.TierHigh)    // 100
	payments.PayAccessFee(ctx, "bob", "room-1", domain.TierPremium)   // 500
	payments.PayAccessFee(ctx, "alice", "room-1", domain.TierPremium) // 500

	return store, payments
}

func TestPendingTipsAndFees(t *testing.T) {
	store, _ := seedQueryFixture(t)
	q := NewQueryService(store)
	ctx := context.Background()

	tips, err := q.PendingTips(ctx, "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tips) != 3 {
		t.Fatalf("tips %d, want 3", len(tips))
	}
	// admission order
	if tips[0].Amount != 100 || tips[1].Amount != 200 || tips[2].Amount != 50 {
		t.Fatalf("order wrong: %+v", tips)
	}
	if !tips[1].SuperChat {
		t.Fatal("super chat flag lost")
	}

	fees, err := q.PendingAccessFees(ctx, "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fees) != 3 {
		t.Fatalf("fees %d, want 3", len(fees))
	}

	if _, err := q.PendingTips(ctx, "nope"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUserPendingTransactions(t *testing.T) {
	store, _ := seedQueryFixture(t)
	q := NewQueryService(store)

	recs, err := q.UserPendingTransactions(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	// 2 tips + 2 fees, interleaved in admission order
	if len(recs) != 4 {
		t.Fatalf("records %d, want 4", len(recs))
	}
	if recs[0].Kind != domain.RecordKindTip || recs[2].Kind != domain.RecordKindAccessFee {
		t.Fatalf("order wrong: %+v", recs)
	}
}

func TestUserPaymentSummary(t *testing.T) {
	store, _ := seedQueryFixture(t)
	q := NewQueryService(store)

	summary, err := q.UserPaymentSummary(context.Background(), "alice", "room-1")
	if err != nil {
		t.Fatal(err)
	}

	// alice spent 100+200+100+500 = 900
	if summary.Balance.Cmp(domain.U128(9100)) != 0 {
		t.Fatalf("balance %s, want 9100", summary.Balance)
	}
	if summary.PendingTransactions != 4 {
		t.Fatalf("global queue %d, want 4", summary.PendingTransactions)
	}
	// per-room counts are filtered to alice's entries only
	if summary.PendingTips != 2 || summary.PendingAccessFees != 2 {
		t.Fatalf("filtered counts: %+v", summary)
	}
	if !summary.CanAffordTips {
		t.Fatal("9100 > min_tip must afford tips")
	}
	// default_tip 100 > min_tip 25
	if summary.RecommendedTip != 100 {
		t.Fatalf("recommended %d, want 100", summary.RecommendedTip)
	}
}

func TestRecommendedTipFloorsAtMinTip(t *testing.T) {
	store, _ := seedQueryFixture(t)
	q := NewQueryService(store)
	admin := NewAdminService(store)
	ctx := context.Background()

	admin.UpdatePreferences(ctx, "alice", domain.UserPreferences{
		DefaultTip:          10, // below the room's min_tip of 25
		AutoSettleThreshold: domain.MaxUint128,
		MaxPending:          100,
	})

	tip, err := q.RecommendedTip(ctx, "alice", "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if tip != 25 {
		t.Fatalf("recommended %d, want room minimum 25", tip)
	}
}

func TestCanAffordTier(t *testing.T) {
	store := ledger.NewMemoryStore()
	admin := NewAdminService(store)
	q := NewQueryService(store)
	ctx := context.Background()

	admin.CreateRoom(ctx, "host", "room-1", nil)
	admin.Deposit(ctx, "viewer", 500)

	ok, err := q.CanAffordTier(ctx, "viewer", "room-1", domain.TierPremium) // 500
	if err != nil || !ok {
		t.Fatalf("exact balance: ok=%v err=%v", ok, err)
	}
	ok, err = q.CanAffordTier(ctx, "viewer", "room-1", domain.TierUltra) // 2000
	if err != nil || ok {
		t.Fatalf("over budget: ok=%v err=%v", ok, err)
	}

	limited := domain.DefaultRoomSettings()
	delete(limited.QualityTiers, domain.TierUltra)
	admin.UpdateRoomSettings(ctx, "host", "room-1", limited)
	if _, err := q.CanAffordTier(ctx, "viewer", "room-1", domain.TierUltra); !errors.Is(err, domain.ErrInvalidQualityTier) {
		t.Fatalf("absent tier: err = %v", err)
	}
}

func TestRoomRevenueBreakdown(t *testing.T) {
	store, _ := seedQueryFixture(t)
	q := NewQueryService(store)

	b, err := q.RoomRevenueBreakdown(context.Background(), "room-1")
	if err != nil {
		t.Fatal(err)
	}

	if b.TotalTips.Cmp(domain.U128(350)) != 0 {
		t.Fatalf("total tips %s, want 350", b.TotalTips)
	}
	if b.TotalAccessFees.Cmp(domain.U128(1100)) != 0 {
		t.Fatalf("total fees %s, want 1100", b.TotalAccessFees)
	}
	if b.TotalRevenue.Cmp(domain.U128(1450)) != 0 {
		t.Fatalf("total revenue %s, want 1450", b.TotalRevenue)
	}
	// nothing settled yet: pending mirrors the totals
	if b.PendingRevenue.Cmp(domain.U128(1450)) != 0 {
		t.Fatalf("pending revenue %s, want 1450", b.PendingRevenue)
	}
	if b.ActiveTippers != 2 {
		t.Fatalf("tippers %d, want 2", b.ActiveTippers)
	}
	if b.QualityTierRevenue[domain.TierPremium].Cmp(domain.U128(1000)) != 0 {
		t.Fatalf("premium revenue %s, want 1000", b.QualityTierRevenue[domain.TierPremium])
	}
	if b.QualityTierRevenue[domain.TierHigh].Cmp(domain.U128(100)) != 0 {
		t.Fatalf("high revenue %s, want 100", b.QualityTierRevenue[domain.TierHigh])
	}
}

func TestBreakdownPendingSurvivesUserSettlement(t *testing.T) {
	store, payments := seedQueryFixture(t)
	q := NewQueryService(store)
	ctx := context.Background()

	// user settlement clears alice's queue but the room queues keep the
	// admitted history
	if _, err := payments.Settle(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	b, err := q.RoomRevenueBreakdown(ctx, "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if b.PendingRevenue.Cmp(domain.U128(1450)) != 0 {
		t.Fatalf("pending revenue %s, want 1450", b.PendingRevenue)
	}

	recs, err := q.UserPendingTransactions(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("alice's queue %d, want 0", len(recs))
	}
}

func TestGlobalStats(t *testing.T) {
	store, _ := seedQueryFixture(t)
	q := NewQueryService(store)

	stats, err := q.GlobalStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActiveRooms != 1 || stats.ActiveUsers != 2 {
		t.Fatalf("counts: %+v", stats)
	}
	if stats.TotalProcessed.Cmp(domain.U128(1450)) != 0 {
		t.Fatalf("processed %s, want 1450", stats.TotalProcessed)
	}
}

func TestQualityTierPricing(t *testing.T) {
	store, _ := seedQueryFixture(t)
	q := NewQueryService(store)

	pricing, err := q.QualityTierPricing(context.Background(), "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if pricing[domain.TierHigh] != 100 || pricing[domain.TierUltra] != 2000 {
		t.Fatalf("pricing %+v", pricing)
	}
}
