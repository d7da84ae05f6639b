package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"time"
)

// AuthUser is an identity record returned by the GoTrue auth API.
type AuthUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// FullName extracts the display name from user metadata, if present.
func (u *AuthUser) FullName() string {
	if u.UserMetadata == nil {
		return ""
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		return name
	}
	return ""
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	User        *AuthUser `json:"user"`
}

type signUpResponse struct {
	// GoTrue returns the user either at the top level or nested, depending
	// on whether autoconfirm is enabled.
	AuthUser
	User *AuthUser `json:"user"`
}

// SignUp registers a new user with GoTrue. The full name travels in
// user_metadata.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*AuthUser, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if fullName != "" {
		payload["data"] = map[string]interface{}{"full_name": fullName}
	}

	body, err := c.auth(ctx, http.MethodPost, "/signup", payload)
	if err != nil {
		return nil, err
	}

	var resp signUpResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	if resp.User != nil && resp.User.ID != "" {
		return resp.User, nil
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("signup response missing user")
	}
	return &resp.AuthUser, nil
}

// SignInWithPassword exchanges email/password credentials for the GoTrue
// user record. Invalid credentials surface as an APIError with status 400.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthUser, error) {
	body, err := c.auth(ctx, http.MethodPost, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, fmt.Errorf("token response missing user")
	}
	return resp.User, nil
}

// AdminGetUser fetches a user by id via the admin API.
func (c *Client) AdminGetUser(ctx context.Context, id string) (*AuthUser, error) {
	body, err := c.auth(ctx, http.MethodGet, "/admin/users/"+neturl.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var user AuthUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("user response missing id")
	}
	return &user, nil
}
