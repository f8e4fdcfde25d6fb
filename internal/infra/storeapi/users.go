package storeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	domuser "example.com/stylino-storefront/internal/domain/user"
)

type userResponse struct {
	ID           int64   `json:"id" validate:"gt=0"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone"`
	Role         string  `json:"role"`
	ReferralCode string  `json:"referralCode"`
	ReferredByID *int64  `json:"referredById"`
}

// CurrentUser implements domuser.Gateway. A 401 from the backend is reported
// as domuser.ErrUnauthorized alongside the APIError.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domuser.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", domuser.ErrUnauthorized, err)
		}
		return nil, err
	}

	u := &domuser.User{
		ID:           resp.ID,
		Name:         resp.Name,
		Email:        resp.Email,
		ReferralCode: resp.ReferralCode,
		ReferredByID: resp.ReferredByID,
	}
	if resp.Phone != nil {
		u.Phone = *resp.Phone
	}
	// Unknown roles are kept out rather than failing the lookup.
	if role, err := domuser.ParseRoleCode(resp.Role); err == nil {
		u.Role = role
	}
	return u, nil
}
