package user

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrProfileUnavailable = errors.New("profile lookup failed")
)
