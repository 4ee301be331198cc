package domain

import "errors"

// Closed error taxonomy. Every ledger operation fails with exactly one of
// these; handlers translate them to stable API codes.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrRoomNotFound        = errors.New("room not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidQualityTier  = errors.New("invalid quality tier")
	ErrPaymentsDisabled    = errors.New("payments disabled")
	ErrSettlementFailed    = errors.New("settlement failed")
	ErrInvalidRoomSettings = errors.New("invalid room settings")
	ErrUnauthorized        = errors.New("unauthorized")
)

// ErrorCode maps a ledger error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrInvalidQualityTier):
		return "invalid_quality_tier"
	case errors.Is(err, ErrPaymentsDisabled):
		return "payments_disabled"
	case errors.Is(err, ErrSettlementFailed):
		return "settlement_failed"
	case errors.Is(err, ErrInvalidRoomSettings):
		return "invalid_room_settings"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	}
	return "internal"
}
