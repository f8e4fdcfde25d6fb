package order

import "errors"

var (
	ErrAuthRequired       = errors.New("authentication required")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrOrderCreation      = errors.New("order creation failed")
)
