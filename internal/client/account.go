// internal/client/account.go
package client

import (
	"context"
	"net/http"

	"github.com/dalemusser/communityhub/internal/domain/record"
)

// AuthResult is returned by login, register and every group change. The
// token is already stored in the session when the call returns.
type AuthResult struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    record.Record `json:"user"`
	Group   record.Record `json:"group"`
}

func (c *Client) authenticate(ctx context.Context, method, path string, body any) (AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, method, path, nil, body, &out); err != nil {
		return AuthResult{}, err
	}
	if out.Token != "" {
		if err := c.session.Refresh(out.Token); err != nil {
			return AuthResult{}, err
		}
	}
	return out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, http.MethodPost, "/public/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and signs in.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, http.MethodPost, "/public/register", map[string]string{
		"fullName": fullName,
		"email":    email,
		"password": password,
	})
}

// Logout forgets the local session. The server keeps no session state.
func (c *Client) Logout() error {
	return c.session.Logout()
}

// CreateGroup creates a group; the caller becomes its admin.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (AuthResult, error) {
	return c.authenticate(ctx, http.MethodPost, "/private/groups", map[string]string{
		"name":        name,
		"description": description,
	})
}

// JoinGroup joins a group with its join code.
func (c *Client) JoinGroup(ctx context.Context, code string) (AuthResult, error) {
	return c.authenticate(ctx, http.MethodPost, "/private/groups/join", map[string]string{"joinCode": code})
}

// SwitchGroup makes groupID the current group.
func (c *Client) SwitchGroup(ctx context.Context, groupID string) (AuthResult, error) {
	return c.authenticate(ctx, http.MethodPost, "/private/groups/"+groupID+"/switch", nil)
}

// Groups lists the caller's groups.
func (c *Client) Groups(ctx context.Context) ([]record.Record, error) {
	var out struct {
		Groups []record.Record `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/private/groups", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// SetPermissions replaces a user's permissions in the current group.
func (c *Client) SetPermissions(ctx context.Context, userID string, perms []string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	body := map[string]any{"userId": userID, "permissions": perms}
	if err := c.do(ctx, http.MethodPatch, "/private/groups/permissions", nil, body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
