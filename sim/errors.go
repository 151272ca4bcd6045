package sim

import "errors"

// Order errors. The order is dropped and the caller gets the error back as
// a value.
var (
	ErrInvalidQty  = errors.New("invalid order quantity")
	ErrIgnoredSize = errors.New("order size rounds below minimum quantity")
)

// Trade state errors mean the ledger was driven out of sequence. They are
// never expected in a correct run and must be propagated.
var (
	ErrAlreadyEntered = errors.New("trade already entered")
	ErrAlreadyClosed  = errors.New("trade already closed")
	ErrNotEntered     = errors.New("trade not entered")
	ErrNotActive      = errors.New("trade not active")
	ErrInvalidSize    = errors.New("invalid trade size")
)

// ErrNoPrice is returned by Match when the execution price is not a finite
// number; callers keep the order pending instead.
var ErrNoPrice = errors.New("no execution price")
