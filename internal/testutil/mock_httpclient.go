package testutil

import (
	"context"
	"sync"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/httpclient"
)

// MockHTTPClient routes every request through SendFn, recording it
type MockHTTPClient struct {
	mu       sync.Mutex
	SendFn   func(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error)
	requests []*httpclient.Request
}

func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{}
}

func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.SendFn
	m.mu.Unlock()

	if fn == nil {
		return nil, ierr.NewError("no response configured").
			WithHint("The mock HTTP client has no SendFn set").
			Mark(ierr.ErrSystem)
	}
	return fn(ctx, req)
}

// Requests returns the requests recorded so far
func (m *MockHTTPClient) Requests() []*httpclient.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*httpclient.Request(nil), m.requests...)
}
