package exception

import "errors"

// Order lifecycle errors. Fill errors leave the order untouched.
var (
	ErrOrderDuplicate         = errors.New("order: already tracked")
	ErrOrderUnknown           = errors.New("order: not found")
	ErrOrderInvalidTransition = errors.New("order: invalid state transition")

	ErrFillZeroQuantity     = errors.New("order: fill quantity is zero")
	ErrFillZeroPrice        = errors.New("order: fill price is zero")
	ErrFillExceedsRemaining = errors.New("order: fill exceeds remaining quantity")
)
