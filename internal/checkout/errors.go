package checkout

import "errors"

var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
	ErrSubmissionFailed = errors.New("order submission failed")
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrUnknownMethod    = errors.New("unknown shipping or payment method")
	// ErrSubmissionInProgress rejects a differing request while the cart's order is being submitted.
	ErrSubmissionInProgress = errors.New("another submission for this cart is in progress")
)
