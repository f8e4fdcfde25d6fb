package user

import "context"

// Gateway resolves the customer behind a bearer token.
type Gateway interface {
	CurrentUser(ctx context.Context, token string) (*User, error)
}
