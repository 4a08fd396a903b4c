// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper holds shared helpers for the package tests.
package testhelper

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
)

const (
	// TestOnlineAPIURL is a real endpoint used by tests that need the network.
	TestOnlineAPIURL = "https://httpbin.org/delay/2"

	integrationEnv = "PERFORM_INTEGRATION_TESTS"
)

// MockRoundTripper is a http.RoundTripper that delegates to Fn.
type MockRoundTripper struct {
	Fn func(*http.Request) (*http.Response, error)
}

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the test unless integration tests are enabled.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv(integrationEnv) == "" {
		t.Skipf("skipping integration test, set %s to run it", integrationEnv)
	}
}

// JSONResponse returns a response with the given status code and body.
func JSONResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// CallCounter counts round trips per URL path. It is safe for concurrent use.
type CallCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

// Add records a call for path.
func (c *CallCounter) Add(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[path]++
}

// Get returns the number of calls recorded for path.
func (c *CallCounter) Get(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[path]
}

// Total returns the number of calls over all paths.
func (c *CallCounter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}
