package service

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/domain"
)

// fakeModelClient records every request and replies with a canned response.
type fakeModelClient struct {
	mu       sync.Mutex
	requests []*domain.ModelRequest
	resp     *domain.ModelResponse
	err      error
	// release, when set, blocks Generate until it is closed.
	release chan struct{}
	started chan struct{}
}

func (f *fakeModelClient) Provider() string { return "fake" }

func (f *fakeModelClient) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeModelClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeModelClient) lastRequest() *domain.ModelRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
