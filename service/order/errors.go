package order

import (
	"errors"
	"fmt"
)

// User-input failures, rejected before any stock read happens.
var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidQuantity       = errors.New("cart item quantity must be at least 1")
	ErrInvalidDeliveryOption = errors.New("unknown delivery option")
	ErrInvalidPaymentMethod  = errors.New("unknown payment method")
	ErrNoDeliveryAddress     = errors.New("no delivery address on file")
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrIllegalTransition = errors.New("illegal order status transition")

	// ErrReferenceData means a seeded order state or delivery method row is
	// missing. Retrying cannot fix a misseeded database.
	ErrReferenceData = errors.New("reference data missing")
)

// StockItemError is the per-product detail returned for both shortfalls and
// commit-time conflicts. ProductName is the client-echoed display name; it is
// never used for anything but the message.
type StockItemError struct {
	ProductID      int64  `json:"productId"`
	ProductName    string `json:"productName"`
	AvailableStock int    `json:"availableStock"`
}

// StockShortfallError is produced by the pre-flight stock validation.
type StockShortfallError struct {
	Items []StockItemError
}

func (e *StockShortfallError) Error() string {
	return fmt.Sprintf("stock validation failed for %d product(s)", len(e.Items))
}

// StockConflictError is produced at commit time when a concurrent checkout
// consumed the remaining units after validation passed. The caller should
// re-run validation and present fresh numbers instead of retrying the same
// plan.
type StockConflictError struct {
	Items []StockItemError
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock conflict on %d product(s) during commit", len(e.Items))
}

// StockErrorItems extracts the structured detail shared by both stock error
// kinds, or nil when err is neither.
func StockErrorItems(err error) []StockItemError {
	var shortfall *StockShortfallError
	if errors.As(err, &shortfall) {
		return shortfall.Items
	}
	var conflict *StockConflictError
	if errors.As(err, &conflict) {
		return conflict.Items
	}
	return nil
}

// IsUserInputError reports whether err should surface as a plain 400 rather
// than a server failure.
func IsUserInputError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidDeliveryOption) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, ErrNoDeliveryAddress) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrIllegalTransition)
}
