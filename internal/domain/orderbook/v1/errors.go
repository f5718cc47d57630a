package orderbookv1

import "errors"

var (
	// ErrNilOrder is returned when a nil order is submitted.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrInvalidAmount is returned when an order amount is not strictly positive.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidPrice is returned when a limit order carries a missing or
	// non-positive price.
	ErrInvalidPrice = errors.New("limit order requires a positive price")
	// ErrInvalidType is returned for an unrecognized order type.
	ErrInvalidType = errors.New("unknown order type")
	// ErrPairMismatch is returned when an order is routed to the wrong book.
	ErrPairMismatch = errors.New("order pair does not match book pair")
	// ErrDuplicateOrder is returned when an order id already rests on the book.
	ErrDuplicateOrder = errors.New("order id already exists")
	// ErrOrderNotFound is returned when cancelling an order that does not rest
	// on the book.
	ErrOrderNotFound = errors.New("order not found")
	// ErrBookHalted is returned once a book has detected an invariant
	// violation and stopped accepting mutations.
	ErrBookHalted = errors.New("order book halted after invariant violation")
	// ErrCrossedBook signals that matching completed while the book was still
	// crossed. It is an internal invariant violation, never a caller error.
	ErrCrossedBook = errors.New("book crossed after matching")
)

// IsValidation reports whether err is a pre-mutation validation failure, i.e.
// fully recoverable by fixing the order and resubmitting.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNilOrder,
		ErrInvalidAmount,
		ErrInvalidPrice,
		ErrInvalidType,
		ErrPairMismatch,
		ErrDuplicateOrder,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
