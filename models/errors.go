package models

import "errors"

// Error kinds surfaced by queries. Callers match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrOverflow         = errors.New("overflow")
	ErrInvalidFeeConfig = errors.New("fees exceed amount")
)

// ErrorCode classifies err for metrics labels and wire replies.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	case errors.Is(err, ErrInvalidFeeConfig):
		return "invalid_fee_config"
	default:
		return "internal"
	}
}
