package graphql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrAuth indicates rejected credentials or an expired/invalid token.
type ErrAuth struct {
	Status  int
	Message string
}

func (e *ErrAuth) Error() string {
	if e.Message == "" {
		return "invalid credentials"
	}
	return e.Message
}

// ErrNetwork indicates the request failed to complete or the server
// answered with a non-2xx status.
type ErrNetwork struct {
	Op     string
	Status int // 0 when the request never got a response
	Err    error
}

func (e *ErrNetwork) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ErrNetwork) Unwrap() error { return e.Err }

// ErrQuery carries the messages of a GraphQL errors array.
type ErrQuery struct {
	Messages []string
}

func (e *ErrQuery) Error() string {
	if len(e.Messages) == 0 {
		return "graphql query failed"
	}
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// ErrInvalidResponse indicates the response body is not a valid GraphQL
// response envelope.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid graphql response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }
