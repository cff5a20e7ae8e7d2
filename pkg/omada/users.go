package omada

import (
	"context"
	"fmt"
	"net/http"
)

// Admin is one controller administrator account.
type Admin struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	RoleID   string `json:"roleId,omitempty"`
	RoleName string `json:"roleName,omitempty"`
	Type     int    `json:"type,omitempty"`
}

// ListAdmins returns the controller's administrator accounts.
func (c *Client) ListAdmins(ctx context.Context) ([]Admin, error) {
	raw, err := c.doEnvelope(ctx, http.MethodGet, usersPath, nil)
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	admins, err := decodePage[Admin](c, raw)
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	return admins, nil
}
