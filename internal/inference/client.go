// Package inference talks to a chat-completion service that turns document
// text into a form schema, and turns its replies back into forms.
package inference

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured means no inference service is available
	ErrNotConfigured = errors.New("inference service not configured")
	// ErrMalformedResponse means the reply was not a usable form schema
	ErrMalformedResponse = errors.New("malformed inference response")
)

// Exchange is a worked example shown to the model before the real request
type Exchange struct {
	User      string
	Assistant string
}

// Request is one completion call
type Request struct {
	Model     string
	System    string
	Examples  []Exchange
	Prompt    string
	JSONMode  bool
	MaxTokens int
}

// Client completes a prompt and returns the raw reply text
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
