package payment

import "context"

// Gateway opens payment sessions for placed orders.
type Gateway interface {
	CreateSession(ctx context.Context, token string, req SessionRequest) (*Session, error)
}
