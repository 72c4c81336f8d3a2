package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned by ParseClaims for a token past its expiry.
var ErrTokenExpired = errors.New("apiclient: token expired")

// Claims are the identity fields the API puts in its access token.
type Claims struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	AccountType string   `json:"account_type"`
	AccountID   int64    `json:"account_id"`
	TenantIDs   []string `json:"tenant_ids"`
	// TenantID is only set for tenant admins.
	TenantID int64 `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// FullName joins first and last name.
func (c *Claims) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.LastName)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token. The API answers with the
// signed token as plain text.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var token string
	err := c.do(ctx, c.http, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &token)
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", &DecodeError{Method: http.MethodPost, Path: "/login", Err: errors.New("empty token")}
	}
	return token, nil
}

// ParseClaims reads the claims of token without verifying its signature.
// The API verifies every call; the dashboard only needs the identity to
// label the session.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("apiclient: parse token: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
