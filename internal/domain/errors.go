package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrParentNotFound is returned when a child line targets a lineId that is not in the cart.
	ErrParentNotFound = errors.New("parent line not found")
	// ErrInvalidItem marks a cart line that cannot be added, e.g. one without a productId.
	ErrInvalidItem = errors.New("productId required")
	// ErrEmptyCart is returned when checkout is requested for a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidReference marks a missing or malformed payment reference.
	ErrInvalidReference = errors.New("invalid payment reference")
	// ErrNotPaid is returned when the backend does not report the order as paid.
	ErrNotPaid = errors.New("order not paid")
)
