package domain

// QualityTier is a closed set of stream quality levels a viewer can buy
// access to. Prices are configured per room.
type QualityTier string

const (
	TierStandard QualityTier = "standard"
	TierHigh     QualityTier = "high"
	TierPremium  QualityTier = "premium"
	TierUltra    QualityTier = "ultra"
)

func (q QualityTier) Valid() bool {
	switch q {
	case TierStandard, TierHigh, TierPremium, TierUltra:
		return true
	}
	return false
}

// ParseQualityTier validates a wire value.
func ParseQualityTier(s string) (QualityTier, error) {
	q := QualityTier(s)
	if !q.Valid() {
		return "", ErrInvalidQualityTier
	}
	return q, nil
}

// RoomSettings is the host-configured pricing for a room.
// AccessFee is the legacy flat fee; tiered pricing ignores it.
type RoomSettings struct {
	MinTip          uint64                 `json:"min_tip"`
	AccessFee       uint64                 `json:"access_fee"`
	QualityTiers    map[QualityTier]uint64 `json:"quality_tiers"`
	PaymentsEnabled bool                   `json:"payments_enabled"`
}

// DefaultRoomSettings returns the pricing a new room starts with.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MinTip:    1,
		AccessFee: 0,
		QualityTiers: map[QualityTier]uint64{
			TierStandard: 0,
			TierHigh:     100,
			TierPremium:  500,
			TierUltra:    2000,
		},
		PaymentsEnabled: true,
	}
}

func (s RoomSettings) clone() RoomSettings {
	out := s
	out.QualityTiers = make(map[QualityTier]uint64, len(s.QualityTiers))
	for k, v := range s.QualityTiers {
		out.QualityTiers[k] = v
	}
	return out
}

// RoomAccount is the per-room payment pool. Totals are all-time and only
// ever increase; the pending id lists reference PaymentRecords in the
// record arena and are append-only history on the room side.
type RoomAccount struct {
	RoomID          string       `json:"room_id"`
	Host            string       `json:"host"`
	TotalTips       Uint128      `json:"total_tips"`
	TotalAccessFees Uint128      `json:"total_access_fees"`
	Withdrawn       Uint128      `json:"withdrawn"`
	PendingTipIDs   []string     `json:"pending_tip_ids"`
	PendingFeeIDs   []string     `json:"pending_fee_ids"`
	Settings        RoomSettings `json:"settings"`
}

func (r *RoomAccount) Clone() *RoomAccount {
	out := *r
	out.PendingTipIDs = append([]string(nil), r.PendingTipIDs...)
	out.PendingFeeIDs = append([]string(nil), r.PendingFeeIDs...)
	out.Settings = r.Settings.clone()
	return &out
}

// UserPreferences control tipping defaults and the auto-settlement policy.
type UserPreferences struct {
	DefaultTip          uint64  `json:"default_tip"`
	AutoSettleThreshold Uint128 `json:"auto_settle_threshold"`
	MaxPending          int     `json:"max_pending"`
}

func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		DefaultTip:          100,
		AutoSettleThreshold: U128(10000),
		MaxPending:          50,
	}
}

// UserAccount is a viewer's spendable balance plus the queue of admitted
// but not yet settled transactions. The queue holds record ids; the
// canonical records live in the arena.
type UserAccount struct {
	UserID           string          `json:"user_id"`
	Balance          Uint128         `json:"balance"`
	PendingRecordIDs []string        `json:"pending_record_ids"`
	Preferences      UserPreferences `json:"preferences"`
}

func (u *UserAccount) Clone() *UserAccount {
	out := *u
	out.PendingRecordIDs = append([]string(nil), u.PendingRecordIDs...)
	return &out
}

// Tip is a voluntary payment to a room, optionally highlighted as a super
// chat. Timestamp is microseconds.
type Tip struct {
	From      string `json:"from"`
	Amount    uint64 `json:"amount"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
	SuperChat bool   `json:"super_chat"`
}

// AccessFee is a quality-tier purchase.
type AccessFee struct {
	UserID      string      `json:"user_id"`
	Amount      uint64      `json:"amount"`
	QualityTier QualityTier `json:"quality_tier"`
	Timestamp   int64       `json:"timestamp"`
}

type RecordKind string

const (
	RecordKindTip       RecordKind = "tip"
	RecordKindAccessFee RecordKind = "access_fee"
)

// PaymentRecord is the canonical form of one admitted transaction. It is
// written once to the record arena; room and user queues reference it by
// id, so the two views can never drift apart.
type PaymentRecord struct {
	ID        string     `json:"id"`
	RoomID    string     `json:"room_id"`
	Kind      RecordKind `json:"kind"`
	Tip       *Tip       `json:"tip,omitempty"`
	AccessFee *AccessFee `json:"access_fee,omitempty"`
}

func (r *PaymentRecord) Amount() uint64 {
	if r.Kind == RecordKindTip {
		return r.Tip.Amount
	}
	return r.AccessFee.Amount
}

func (r *PaymentRecord) From() string {
	if r.Kind == RecordKindTip {
		return r.Tip.From
	}
	return r.AccessFee.UserID
}

func (r *PaymentRecord) Timestamp() int64 {
	if r.Kind == RecordKindTip {
		return r.Tip.Timestamp
	}
	return r.AccessFee.Timestamp
}

func (r *PaymentRecord) Clone() *PaymentRecord {
	out := *r
	if r.Tip != nil {
		tip := *r.Tip
		out.Tip = &tip
	}
	if r.AccessFee != nil {
		fee := *r.AccessFee
		out.AccessFee = &fee
	}
	return &out
}

// PaymentStats is the single process-wide aggregate register. It is read
// and replaced wholesale inside the same store transaction as the
// operation that changes it.
type PaymentStats struct {
	TotalProcessed  Uint128 `json:"total_processed"`
	TotalTips       Uint128 `json:"total_tips"`
	TotalAccessFees Uint128 `json:"total_access_fees"`
	ActiveUsers     uint64  `json:"active_users"`
	ActiveRooms     uint64  `json:"active_rooms"`
}
