package order

import "context"

// Gateway places orders on the storefront backend on behalf of a bearer token.
type Gateway interface {
	CreateOrder(ctx context.Context, token string, draft Draft) (*Order, error)
}
