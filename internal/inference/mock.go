package inference

import (
	"context"
	"sync"
)

// MockClient is a Client for tests. It replays Responses in order, repeating
// the last one, and records every request it receives.
type MockClient struct {
	Responses []string
	Err       error

	mu       sync.Mutex
	requests []Request
}

// NewMockClient returns a mock that answers with responses in turn
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

// Complete records req and returns the next scripted response
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.requests)
	m.requests = append(m.requests, req)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if n >= len(m.Responses) {
		n = len(m.Responses) - 1
	}
	return m.Responses[n], nil
}

// Requests returns the requests seen so far
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

var _ Client = (*MockClient)(nil)
