package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"streampay/internal/domain"
	"streampay/internal/ledger"

	"github.com/google/uuid"
)

// Tip messages longer than this are rejected at admission.
const maxTipMessageLen = 500

// PaymentEvent is broadcast to a room's event feed after a mutating
// operation commits.
type PaymentEvent struct {
	Type             string             `json:"type"` // "tip" | "access_fee" | "settlement"
	RoomID           string             `json:"room_id,omitempty"`
	UserID           string             `json:"user_id,omitempty"`
	Amount           uint64             `json:"amount,omitempty"`
	Message          string             `json:"message,omitempty"`
	SuperChat        bool               `json:"super_chat,omitempty"`
	QualityTier      domain.QualityTier `json:"quality_tier,omitempty"`
	TransactionCount int                `json:"transaction_count,omitempty"`
	TotalAmount      string             `json:"total_amount,omitempty"`
	Timestamp        int64              `json:"timestamp,omitempty"`
}

// EventPublisher fans a payment event out to a room's subscribers.
type EventPublisher interface {
	PublishPayment(roomID string, event PaymentEvent)
}

// PaymentService admits tips and access fees against the ledger store and
// settles per-user pending queues. Spending is applied to balances
// immediately; the admitted transaction is queued and later collapsed into
// a single settlement receipt.
type PaymentService struct {
	store ledger.Store

	// Now is the injected microsecond clock. Tests pin it.
	Now func() int64
	// Events, when set, receives post-commit payment events.
	Events EventPublisher
}

func NewPaymentService(store ledger.Store) *PaymentService {
	return &PaymentService{
		store: store,
		Now:   func() int64 { return time.Now().UnixMicro() },
	}
}

func newRecordID() string {
	return "pr-" + uuid.NewString()
}

// SendTip validates and admits a tip from caller to a room. On success the
// tip amount is deducted from the caller's balance, recorded once in the
// record arena and referenced from both the room's and the caller's pending
// queues, all in one store transaction. If the caller's auto-settlement
// policy fires, settlement runs before the transaction commits.
func (s *PaymentService) SendTip(ctx context.Context, caller, roomID string, amount uint64, message string, superChat bool) (*domain.TipReceipt, error) {
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	if caller == "" {
		return nil, domain.ErrUnauthorized
	}
	if len(message) > maxTipMessageLen {
		return nil, domain.ErrInvalidAmount
	}

	var receipt *domain.TipReceipt
	var events []PaymentEvent
	var autoSettled bool

	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		room, err := tx.Room(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}

		user, err := tx.User(caller)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if user.Balance.Cmp(domain.U128(amount)) < 0 {
			return domain.ErrInsufficientBalance
		}

		newTotal, ok := room.TotalTips.AddU64Checked(amount)
		if !ok {
			return domain.ErrInvalidAmount
		}

		ts := s.Now()
		rec := &domain.PaymentRecord{
			ID:     newRecordID(),
			RoomID: roomID,
			Kind:   domain.RecordKindTip,
			Tip: &domain.Tip{
				From:      caller,
				Amount:    amount,
				Message:   message,
				Timestamp: ts,
				SuperChat: superChat,
			},
		}
		if err := tx.PutRecord(rec); err != nil {
			return err
		}

		room.TotalTips = newTotal
		room.PendingTipIDs = append(room.PendingTipIDs, rec.ID)
		if err := tx.PutRoom(room); err != nil {
			return err
		}

		user.Balance = user.Balance.SubSaturating(domain.U128(amount))
		user.PendingRecordIDs = append(user.PendingRecordIDs, rec.ID)
		if err := tx.PutUser(user); err != nil {
			return err
		}

		if err := bumpStats(tx, amount, domain.RecordKindTip); err != nil {
			return err
		}

		receipt = &domain.TipReceipt{
			TipID:             fmt.Sprintf("tip-%s-%d-%d", roomID, ts, amount),
			Amount:            amount,
			PendingSettlement: true,
		}
		events = append(events, PaymentEvent{
			Type:      "tip",
			RoomID:    roomID,
			UserID:    caller,
			Amount:    amount,
			Message:   message,
			SuperChat: superChat,
			Timestamp: ts,
		})

		// the policy sees post-admission state: reduced balance, grown queue
		if autoSettleDue(user) {
			_, settleEvents, err := settleInTx(tx, caller)
			if err != nil {
				return err
			}
			autoSettled = true
			events = append(events, settleEvents...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	paymentsProcessed.WithLabelValues("tip").Inc()
	if autoSettled {
		settlementsTotal.Inc()
	}
	s.publish(events)
	return receipt, nil
}

// PayAccessFee validates and admits a quality-tier purchase. Unlike tip
// admission this path does not consult the auto-settlement policy.
func (s *PaymentService) PayAccessFee(ctx context.Context, caller, roomID string, tier domain.QualityTier) (*domain.AccessFeeReceipt, error) {
	if caller == "" {
		return nil, domain.ErrUnauthorized
	}

	var receipt *domain.AccessFeeReceipt
	var events []PaymentEvent

	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		room, err := tx.Room(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}
		if !room.Settings.PaymentsEnabled {
			return domain.ErrPaymentsDisabled
		}

		price, ok := room.Settings.QualityTiers[tier]
		if !ok {
			return domain.ErrInvalidQualityTier
		}

		user, err := tx.User(caller)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if user.Balance.Cmp(domain.U128(price)) < 0 {
			return domain.ErrInsufficientBalance
		}

		newTotal, ok := room.TotalAccessFees.AddU64Checked(price)
		if !ok {
			return domain.ErrInvalidAmount
		}

		ts := s.Now()
		rec := &domain.PaymentRecord{
			ID:     newRecordID(),
			RoomID: roomID,
			Kind:   domain.RecordKindAccessFee,
			AccessFee: &domain.AccessFee{
				UserID:      caller,
				Amount:      price,
				QualityTier: tier,
				Timestamp:   ts,
			},
		}
		if err := tx.PutRecord(rec); err != nil {
			return err
		}

		room.TotalAccessFees = newTotal
		room.PendingFeeIDs = append(room.PendingFeeIDs, rec.ID)
		if err := tx.PutRoom(room); err != nil {
			return err
		}

		user.Balance = user.Balance.SubSaturating(domain.U128(price))
		user.PendingRecordIDs = append(user.PendingRecordIDs, rec.ID)
		if err := tx.PutUser(user); err != nil {
			return err
		}

		if err := bumpStats(tx, price, domain.RecordKindAccessFee); err != nil {
			return err
		}

		receipt = &domain.AccessFeeReceipt{
			RoomID:            roomID,
			QualityTier:       tier,
			PendingSettlement: true,
		}
		events = append(events, PaymentEvent{
			Type:        "access_fee",
			RoomID:      roomID,
			UserID:      caller,
			Amount:      price,
			QualityTier: tier,
			Timestamp:   ts,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	paymentsProcessed.WithLabelValues("access_fee").Inc()
	s.publish(events)
	return receipt, nil
}

// Settle clears the user's pending queue into a single batch receipt.
// Room queues and room totals are untouched: those were updated at
// admission time, so settlement is a per-user bookkeeping checkpoint only.
func (s *PaymentService) Settle(ctx context.Context, userID string) (*domain.SettlementReceipt, error) {
	var receipt *domain.SettlementReceipt
	var events []PaymentEvent

	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		receipt, events, err = settleInTx(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	settlementsTotal.Inc()
	s.publish(events)
	return receipt, nil
}

// ShouldAutoSettle reports whether the user's auto-settlement policy is
// currently due. Diagnostic read, no side effects.
func (s *PaymentService) ShouldAutoSettle(ctx context.Context, userID string) (bool, error) {
	var due bool
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		due = autoSettleDue(user)
		return nil
	})
	return due, err
}

// autoSettleDue is the auto-settlement policy: settle when the balance
// reaches the configured threshold or the queue reaches max_pending.
func autoSettleDue(u *domain.UserAccount) bool {
	if u.Balance.Cmp(u.Preferences.AutoSettleThreshold) >= 0 {
		return true
	}
	return len(u.PendingRecordIDs) >= u.Preferences.MaxPending
}

func settleInTx(tx ledger.Tx, userID string) (*domain.SettlementReceipt, []PaymentEvent, error) {
	user, err := tx.User(userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, domain.ErrUserNotFound
	}

	recs, err := tx.Records(user.PendingRecordIDs)
	if err != nil {
		return nil, nil, err
	}

	total := domain.Uint128{}
	for _, rec := range recs {
		next, ok := total.AddU64Checked(rec.Amount())
		if !ok {
			return nil, nil, domain.ErrSettlementFailed
		}
		total = next
	}

	receipt := &domain.SettlementReceipt{
		UserID:           userID,
		TransactionCount: len(recs),
		TotalAmount:      total,
		SettlementHash:   settlementHash(userID, recs),
	}

	user.PendingRecordIDs = nil
	if err := tx.PutUser(user); err != nil {
		return nil, nil, err
	}

	// notify every room that had records in the batch
	var events []PaymentEvent
	seen := make(map[string]bool)
	for _, rec := range recs {
		if seen[rec.RoomID] {
			continue
		}
		seen[rec.RoomID] = true
		events = append(events, PaymentEvent{
			Type:             "settlement",
			RoomID:           rec.RoomID,
			UserID:           userID,
			TransactionCount: receipt.TransactionCount,
			TotalAmount:      receipt.TotalAmount.String(),
		})
	}
	return receipt, events, nil
}

// settlementHash commits to the ordered batch contents. It is an opaque
// receipt id, not a cryptographic settlement proof.
func settlementHash(userID string, recs []*domain.PaymentRecord) string {
	h := sha256.New()
	io.WriteString(h, userID)
	for _, rec := range recs {
		fmt.Fprintf(h, "|%s:%s:%d:%d", rec.ID, rec.Kind, rec.Amount(), rec.Timestamp())
	}
	return hex.EncodeToString(h.Sum(nil))
}

func bumpStats(tx ledger.Tx, amount uint64, kind domain.RecordKind) error {
	stats, err := tx.Stats()
	if err != nil {
		return err
	}
	processed, ok := stats.TotalProcessed.AddU64Checked(amount)
	if !ok {
		return domain.ErrInvalidAmount
	}
	stats.TotalProcessed = processed

	switch kind {
	case domain.RecordKindTip:
		total, ok := stats.TotalTips.AddU64Checked(amount)
		if !ok {
			return domain.ErrInvalidAmount
		}
		stats.TotalTips = total
	case domain.RecordKindAccessFee:
		total, ok := stats.TotalAccessFees.AddU64Checked(amount)
		if !ok {
			return domain.ErrInvalidAmount
		}
		stats.TotalAccessFees = total
	}
	return tx.PutStats(stats)
}

func (s *PaymentService) publish(events []PaymentEvent) {
	if s.Events == nil {
		return
	}
	for _, ev := range events {
		s.Events.PublishPayment(ev.RoomID, ev)
	}
}
