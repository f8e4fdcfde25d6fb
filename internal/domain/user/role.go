package user

import (
	"errors"
	"strings"
)

// RoleCode is the account role reported by the store API.
type RoleCode string

const (
	RoleCodeCustomer RoleCode = "CUSTOMER"
	RoleCodeSeller   RoleCode = "SELLER"
	RoleCodeAdmin    RoleCode = "ADMIN"
)

func (c RoleCode) IsValid() bool {
	switch c {
	case RoleCodeCustomer, RoleCodeSeller, RoleCodeAdmin:
		return true
	default:
		return false
	}
}

// CanCheckout reports whether the backend accepts new orders from this role.
func (c RoleCode) CanCheckout() bool {
	return c == RoleCodeCustomer
}

// ErrInvalidRoleCode is returned by ParseRoleCode for unknown codes.
var ErrInvalidRoleCode = errors.New("invalid role code")

// ParseRoleCode accepts role codes in any letter case.
func ParseRoleCode(s string) (RoleCode, error) {
	c := RoleCode(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidRoleCode
	}
	return c, nil
}
