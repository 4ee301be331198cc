package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"streampay/internal/domain"
	"streampay/internal/ledger"
)

// AdminService covers host-only room administration plus the provisioning
// surface (rooms, deposits, preferences) the ledger needs to be usable.
type AdminService struct {
	store ledger.Store

	Now func() int64
	// TrackWithdrawals switches the withdrawal policy. Off (the inherited
	// behavior) a withdrawal only checks against the all-time totals and
	// records nothing, so the same revenue can be withdrawn repeatedly.
	// On, the room account accumulates a withdrawn counter and the check
	// becomes amount <= totals - withdrawn. The totals themselves stay
	// monotonic either way.
	TrackWithdrawals bool
}

func NewAdminService(store ledger.Store) *AdminService {
	return &AdminService{
		store: store,
		Now:   func() int64 { return time.Now().UnixMicro() },
	}
}

func validateSettings(settings domain.RoomSettings) error {
	if settings.MinTip == 0 {
		return domain.ErrInvalidRoomSettings
	}
	for tier := range settings.QualityTiers {
		if !tier.Valid() {
			return domain.ErrInvalidRoomSettings
		}
	}
	return nil
}

// CreateRoom provisions a payment pool with the caller as host. Passing nil
// settings applies the platform defaults. Calling it again for an existing
// room returns that room unchanged (host only).
func (s *AdminService) CreateRoom(ctx context.Context, caller, roomID string, settings *domain.RoomSettings) (*domain.RoomAccount, error) {
	if caller == "" {
		return nil, domain.ErrUnauthorized
	}
	if roomID == "" {
		return nil, domain.ErrInvalidRoomSettings
	}

	cfg := domain.DefaultRoomSettings()
	if settings != nil {
		cfg = *settings
	}
	if err := validateSettings(cfg); err != nil {
		return nil, err
	}

	var room *domain.RoomAccount
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		existing, err := tx.Room(roomID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Host != caller {
				return domain.ErrUnauthorized
			}
			room = existing
			return nil
		}

		room = &domain.RoomAccount{
			RoomID:   roomID,
			Host:     caller,
			Settings: cfg,
		}
		if err := tx.PutRoom(room); err != nil {
			return err
		}

		stats, err := tx.Stats()
		if err != nil {
			return err
		}
		stats.ActiveRooms++
		return tx.PutStats(stats)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Deposit credits the caller's spendable balance, creating the account with
// default preferences on first use. Moving real value into the ledger is an
// external concern; this only tracks the abstract balance.
func (s *AdminService) Deposit(ctx context.Context, caller string, amount uint64) (*domain.UserAccount, error) {
	if caller == "" {
		return nil, domain.ErrUnauthorized
	}
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}

	var user *domain.UserAccount
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		user, err = tx.User(caller)
		if err != nil {
			return err
		}

		created := user == nil
		if created {
			user = &domain.UserAccount{
				UserID:      caller,
				Preferences: domain.DefaultUserPreferences(),
			}
		}

		balance, ok := user.Balance.AddU64Checked(amount)
		if !ok {
			return domain.ErrInvalidAmount
		}
		user.Balance = balance
		if err := tx.PutUser(user); err != nil {
			return err
		}

		if created {
			stats, err := tx.Stats()
			if err != nil {
				return err
			}
			stats.ActiveUsers++
			return tx.PutStats(stats)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePreferences replaces the caller's payment preferences wholesale.
func (s *AdminService) UpdatePreferences(ctx context.Context, caller string, prefs domain.UserPreferences) (*domain.UserAccount, error) {
	if caller == "" {
		return nil, domain.ErrUnauthorized
	}

	var user *domain.UserAccount
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		user, err = tx.User(caller)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		user.Preferences = prefs
		return tx.PutUser(user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRoomSettings replaces a room's settings wholesale. Host only.
func (s *AdminService) UpdateRoomSettings(ctx context.Context, caller, roomID string, settings domain.RoomSettings) error {
	if caller == "" {
		return domain.ErrUnauthorized
	}

	return s.store.Update(ctx, func(tx ledger.Tx) error {
		room, err := tx.Room(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}
		if room.Host != caller {
			return domain.ErrUnauthorized
		}
		if err := validateSettings(settings); err != nil {
			return err
		}
		room.Settings = settings
		return tx.PutRoom(room)
	})
}

// WithdrawFunds authorizes a host withdrawal against the room's accumulated
// revenue and returns a deterministic withdrawal receipt hash.
func (s *AdminService) WithdrawFunds(ctx context.Context, caller, roomID string, amount domain.Uint128) (*domain.WithdrawalReceipt, error) {
	if caller == "" {
		return nil, domain.ErrUnauthorized
	}

	var receipt *domain.WithdrawalReceipt
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		room, err := tx.Room(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrRoomNotFound
		}
		if room.Host != caller {
			return domain.ErrUnauthorized
		}
		if amount.IsZero() {
			return domain.ErrInvalidAmount
		}

		available, ok := room.TotalTips.AddChecked(room.TotalAccessFees)
		if !ok {
			return domain.ErrInvalidAmount
		}
		if s.TrackWithdrawals {
			available = available.SubSaturating(room.Withdrawn)
		}
		if amount.Cmp(available) > 0 {
			return domain.ErrInsufficientBalance
		}

		ts := s.Now()
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", roomID, amount, ts)))
		receipt = &domain.WithdrawalReceipt{
			RoomID:         roomID,
			Amount:         amount,
			WithdrawalHash: hex.EncodeToString(sum[:]),
		}

		if s.TrackWithdrawals {
			withdrawn, ok := room.Withdrawn.AddChecked(amount)
			if !ok {
				return domain.ErrInvalidAmount
			}
			room.Withdrawn = withdrawn
			return tx.PutRoom(room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	withdrawalsTotal.Inc()
	return receipt, nil
}
