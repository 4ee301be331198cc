package domain

// Receipts returned by mutating ledger operations.

type TipReceipt struct {
	TipID             string `json:"tip_id"`
	Amount            uint64 `json:"amount"`
	PendingSettlement bool   `json:"pending_settlement"`
}

type AccessFeeReceipt struct {
	RoomID            string      `json:"room_id"`
	QualityTier       QualityTier `json:"quality_tier"`
	PendingSettlement bool        `json:"pending_settlement"`
}

type SettlementReceipt struct {
	UserID           string  `json:"user_id"`
	TransactionCount int     `json:"transaction_count"`
	TotalAmount      Uint128 `json:"total_amount"`
	SettlementHash   string  `json:"settlement_hash"`
}

type WithdrawalReceipt struct {
	RoomID         string  `json:"room_id"`
	Amount         Uint128 `json:"amount"`
	WithdrawalHash string  `json:"withdrawal_hash"`
}

// Read-side projections.

// UserPaymentSummary is the viewer-facing widget state for one room:
// the pending counts are filtered to that user's entries in the room's
// queues, not the user's global queue.
type UserPaymentSummary struct {
	UserID              string  `json:"user_id"`
	RoomID              string  `json:"room_id"`
	Balance             Uint128 `json:"balance"`
	PendingTransactions int     `json:"pending_transactions"`
	PendingTips         int     `json:"pending_tips"`
	PendingAccessFees   int     `json:"pending_access_fees"`
	CanAffordTips       bool    `json:"can_afford_tips"`
	RecommendedTip      uint64  `json:"recommended_tip"`
	AutoSettleThreshold Uint128 `json:"auto_settle_threshold"`
}

// RoomRevenueBreakdown is the host dashboard projection. Per-tier revenue
// covers pending access fees only; settled history is not attributed.
type RoomRevenueBreakdown struct {
	RoomID             string                  `json:"room_id"`
	Host               string                  `json:"host"`
	TotalTips          Uint128                 `json:"total_tips"`
	TotalAccessFees    Uint128                 `json:"total_access_fees"`
	PendingTips        Uint128                 `json:"pending_tips"`
	PendingAccessFees  Uint128                 `json:"pending_access_fees"`
	TotalRevenue       Uint128                 `json:"total_revenue"`
	PendingRevenue     Uint128                 `json:"pending_revenue"`
	ActiveTippers      int                     `json:"active_tippers"`
	QualityTierRevenue map[QualityTier]Uint128 `json:"quality_tier_revenue"`
}
