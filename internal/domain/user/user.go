package user

// User is the signed-in customer as reported by the storefront backend. It is
// only consulted to prefill checkout contact fields.
type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Role         RoleCode
	ReferralCode string
	ReferredByID *int64
}
