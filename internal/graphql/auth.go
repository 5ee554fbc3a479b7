package graphql

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SignIn exchanges login and password for a bearer token using HTTP Basic
// credentials. Rejected credentials return *ErrAuth.
func (c *Client) SignIn(ctx context.Context, login, password string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SignInPath, nil)
	if err != nil {
		return "", fmt.Errorf("build sign-in request: %w", err)
	}
	req.SetBasicAuth(login, password)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &ErrNetwork{Op: "sign in", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &ErrNetwork{Op: "sign in", Err: err}
	}
	c.logger.Debug("sign in", "status", resp.StatusCode, "latency_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ErrAuth{Status: resp.StatusCode, Message: signInMessage(body)}
	}

	token := parseToken(body)
	if token == "" {
		return "", &ErrAuth{Status: resp.StatusCode, Message: "sign-in returned an empty token"}
	}
	return token, nil
}

// signInMessage extracts the server's error message, if it sent one.
func signInMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return "invalid credentials"
}

// parseToken accepts the token either as a JSON string or as raw text.
func parseToken(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return string(body)
}

// Claims are the JWT claims zonedash reads. The signature is not verified;
// the backend does that on every query.
type Claims struct {
	UserID    int
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp claim is at or before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes the JWT payload. The user id comes from "sub",
// falling back to the Hasura x-hasura-user-id claim.
func ParseClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, &ErrAuth{Message: "malformed token"}
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, &ErrAuth{Message: fmt.Sprintf("decode token payload: %v", err)}
	}

	var raw struct {
		Sub    json.RawMessage `json:"sub"`
		Exp    *float64        `json:"exp"`
		Hasura struct {
			UserID string `json:"x-hasura-user-id"`
		} `json:"https://hasura.io/jwt/claims"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Claims{}, &ErrAuth{Message: fmt.Sprintf("parse token claims: %v", err)}
	}

	var claims Claims
	if raw.Exp != nil {
		claims.ExpiresAt = time.Unix(int64(*raw.Exp), 0).UTC()
	}
	for _, id := range []string{strings.Trim(string(raw.Sub), `"`), raw.Hasura.UserID} {
		if id == "" {
			continue
		}
		if n, err := strconv.Atoi(id); err == nil {
			claims.UserID = n
			return claims, nil
		}
	}
	return Claims{}, &ErrAuth{Message: "token has no user id"}
}

// UserIDFromToken returns the user id carried by token.
func UserIDFromToken(token string) (int, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
