package service

import (
	"context"

	"streampay/internal/domain"
	"streampay/internal/ledger"
)

// QueryService is the read side: projections over the same ledger store the
// engines mutate, computed inside read-only store transactions.
type QueryService struct {
	store ledger.Store
}

func NewQueryService(store ledger.Store) *QueryService {
	return &QueryService{store: store}
}

func roomOrErr(tx ledger.Tx, roomID string) (*domain.RoomAccount, error) {
	room, err := tx.Room(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func userOrErr(tx ledger.Tx, userID string) (*domain.UserAccount, error) {
	user, err := tx.User(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// RoomStats returns the room account as stored (queues as record ids).
func (s *QueryService) RoomStats(ctx context.Context, roomID string) (*domain.RoomAccount, error) {
	var room *domain.RoomAccount
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		room, err = roomOrErr(tx, roomID)
		return err
	})
	return room, err
}

// UserState returns the user account as stored.
func (s *QueryService) UserState(ctx context.Context, userID string) (*domain.UserAccount, error) {
	var user *domain.UserAccount
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		user, err = userOrErr(tx, userID)
		return err
	})
	return user, err
}

func (s *QueryService) GlobalStats(ctx context.Context) (domain.PaymentStats, error) {
	var stats domain.PaymentStats
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		stats, err = tx.Stats()
		return err
	})
	return stats, err
}

// PendingTips resolves a room's pending tip queue in admission order.
func (s *QueryService) PendingTips(ctx context.Context, roomID string) ([]domain.Tip, error) {
	var tips []domain.Tip
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		room, err := roomOrErr(tx, roomID)
		if err != nil {
			return err
		}
		recs, err := tx.Records(room.PendingTipIDs)
		if err != nil {
			return err
		}
		tips = make([]domain.Tip, 0, len(recs))
		for _, rec := range recs {
			tips = append(tips, *rec.Tip)
		}
		return nil
	})
	return tips, err
}

// PendingAccessFees resolves a room's pending access-fee queue.
func (s *QueryService) PendingAccessFees(ctx context.Context, roomID string) ([]domain.AccessFee, error) {
	var fees []domain.AccessFee
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		room, err := roomOrErr(tx, roomID)
		if err != nil {
			return err
		}
		recs, err := tx.Records(room.PendingFeeIDs)
		if err != nil {
			return err
		}
		fees = make([]domain.AccessFee, 0, len(recs))
		for _, rec := range recs {
			fees = append(fees, *rec.AccessFee)
		}
		return nil
	})
	return fees, err
}

// UserPendingTransactions resolves the user's unsettled queue.
func (s *QueryService) UserPendingTransactions(ctx context.Context, userID string) ([]*domain.PaymentRecord, error) {
	var recs []*domain.PaymentRecord
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		user, err := userOrErr(tx, userID)
		if err != nil {
			return err
		}
		recs, err = tx.Records(user.PendingRecordIDs)
		return err
	})
	return recs, err
}

func (s *QueryService) QualityTierPricing(ctx context.Context, roomID string) (map[domain.QualityTier]uint64, error) {
	var pricing map[domain.QualityTier]uint64
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		room, err := roomOrErr(tx, roomID)
		if err != nil {
			return err
		}
		pricing = room.Settings.QualityTiers
		return nil
	})
	return pricing, err
}

// RecommendedTip is the larger of the user's default tip and the room's
// minimum.
func (s *QueryService) RecommendedTip(ctx context.Context, userID, roomID string) (uint64, error) {
	var tip uint64
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		user, err := userOrErr(tx, userID)
		if err != nil {
			return err
		}
		room, err := roomOrErr(tx, roomID)
		if err != nil {
			return err
		}
		tip = recommendedTip(user, room)
		return nil
	})
	return tip, err
}

func recommendedTip(user *domain.UserAccount, room *domain.RoomAccount) uint64 {
	if room.Settings.MinTip > user.Preferences.DefaultTip {
		return room.Settings.MinTip
	}
	return user.Preferences.DefaultTip
}

// CanAffordTier reports whether the user's balance covers the tier price.
func (s *QueryService) CanAffordTier(ctx context.Context, userID, roomID string, tier domain.QualityTier) (bool, error) {
	var ok bool
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		user, err := userOrErr(tx, userID)
		if err != nil {
			return err
		}
		room, err := roomOrErr(tx, roomID)
		if err != nil {
			return err
		}
		price, found := room.Settings.QualityTiers[tier]
		if !found {
			return domain.ErrInvalidQualityTier
		}
		ok = user.Balance.Cmp(domain.U128(price)) >= 0
		return nil
	})
	return ok, err
}

// UserPaymentSummary builds the viewer widget state for one room. Pending
// tip/fee counts are the user's entries in that room's queues, not the
// user's global queue.
func (s *QueryService) UserPaymentSummary(ctx context.Context, userID, roomID string) (*domain.UserPaymentSummary, error) {
	var summary *domain.UserPaymentSummary
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		user, err := userOrErr(tx, userID)
		if err != nil {
			return err
		}
		room, err := roomOrErr(tx, roomID)
		if err != nil {
			return err
		}

		tipRecs, err := tx.Records(room.PendingTipIDs)
		if err != nil {
			return err
		}
		feeRecs, err := tx.Records(room.PendingFeeIDs)
		if err != nil {
			return err
		}

		tipCount := 0
		for _, rec := range tipRecs {
			if rec.Tip.From == userID {
				tipCount++
			}
		}
		feeCount := 0
		for _, rec := range feeRecs {
			if rec.AccessFee.UserID == userID {
				feeCount++
			}
		}

		summary = &domain.UserPaymentSummary{
			UserID:              userID,
			RoomID:              roomID,
			Balance:             user.Balance,
			PendingTransactions: len(user.PendingRecordIDs),
			PendingTips:         tipCount,
			PendingAccessFees:   feeCount,
			CanAffordTips:       user.Balance.Cmp(domain.U128(room.Settings.MinTip)) > 0,
			RecommendedTip:      recommendedTip(user, room),
			AutoSettleThreshold: user.Preferences.AutoSettleThreshold,
		}
		return nil
	})
	return summary, err
}

// RoomRevenueBreakdown builds the host dashboard projection. Per-tier
// revenue is attributed from pending access fees only.
func (s *QueryService) RoomRevenueBreakdown(ctx context.Context, roomID string) (*domain.RoomRevenueBreakdown, error) {
	var breakdown *domain.RoomRevenueBreakdown
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		room, err := roomOrErr(tx, roomID)
		if err != nil {
			return err
		}

		tipRecs, err := tx.Records(room.PendingTipIDs)
		if err != nil {
			return err
		}
		feeRecs, err := tx.Records(room.PendingFeeIDs)
		if err != nil {
			return err
		}

		pendingTips := domain.Uint128{}
		tippers := make(map[string]bool)
		for _, rec := range tipRecs {
			next, ok := pendingTips.AddU64Checked(rec.Tip.Amount)
			if !ok {
				return domain.ErrInvalidAmount
			}
			pendingTips = next
			tippers[rec.Tip.From] = true
		}

		pendingFees := domain.Uint128{}
		tierRevenue := make(map[domain.QualityTier]domain.Uint128)
		for _, rec := range feeRecs {
			next, ok := pendingFees.AddU64Checked(rec.AccessFee.Amount)
			if !ok {
				return domain.ErrInvalidAmount
			}
			pendingFees = next

			tierNext, ok := tierRevenue[rec.AccessFee.QualityTier].AddU64Checked(rec.AccessFee.Amount)
			if !ok {
				return domain.ErrInvalidAmount
			}
			tierRevenue[rec.AccessFee.QualityTier] = tierNext
		}

		totalRevenue, ok := room.TotalTips.AddChecked(room.TotalAccessFees)
		if !ok {
			return domain.ErrInvalidAmount
		}
		pendingRevenue, ok := pendingTips.AddChecked(pendingFees)
		if !ok {
			return domain.ErrInvalidAmount
		}

		breakdown = &domain.RoomRevenueBreakdown{
			RoomID:             room.RoomID,
			Host:               room.Host,
			TotalTips:          room.TotalTips,
			TotalAccessFees:    room.TotalAccessFees,
			PendingTips:        pendingTips,
			PendingAccessFees:  pendingFees,
			TotalRevenue:       totalRevenue,
			PendingRevenue:     pendingRevenue,
			ActiveTippers:      len(tippers),
			QualityTierRevenue: tierRevenue,
		}
		return nil
	})
	return breakdown, err
}
