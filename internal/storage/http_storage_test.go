package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const netBody = "header\n$\n#planes=2 1 1\n0 1\n0 1\nbias 0 1\n0\nwgt 0 1 1\n1\n"

func TestHTTPNetFetcher_RetryLogic(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int // Status codes to return in sequence
		expectRetries int   // Expected number of requests
		expectError   bool
		errorContains string
	}{
		{
			name:          "Success on first attempt",
			responses:     []int{200},
			expectRetries: 1,
		},
		{
			name:          "Success on second attempt after 5xx",
			responses:     []int{500, 200},
			expectRetries: 2,
		},
		{
			name:          "4xx client error - no retry",
			responses:     []int{404},
			expectRetries: 1,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "4xx after 5xx - should retry until 4xx then stop",
			responses:     []int{500, 404},
			expectRetries: 2,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "All 5xx errors - retry all attempts",
			responses:     []int{500, 502, 503},
			expectRetries: 3,
			expectError:   true,
			errorContains: "server error: status code 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requestCount int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(atomic.AddInt32(&requestCount, 1)) - 1
				if n >= len(tt.responses) {
					w.WriteHeader(500)
					w.Write([]byte("Unexpected request"))
					return
				}
				if code := tt.responses[n]; code != 200 {
					w.WriteHeader(code)
					w.Write([]byte(fmt.Sprintf("Error %d", code)))
					return
				}
				w.Write([]byte(netBody))
			}))
			defer server.Close()

			fetcher := NewHTTPNetFetcher(server.URL, 5*time.Second).WithBackoff(5 * time.Millisecond)
			rc, err := fetcher.FetchNet(context.Background(), "meris/rw_iop/tiny.net")

			if got := int(atomic.LoadInt32(&requestCount)); got != tt.expectRetries {
				t.Errorf("Expected %d requests, got %d", tt.expectRetries, got)
			}

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %s", err.Error())
			}
			defer rc.Close()
			body, _ := io.ReadAll(rc)
			if string(body) != netBody {
				t.Errorf("Unexpected body %q", body)
			}
		})
	}
}

func TestHTTPNetFetcher_NetworkError_Retry(t *testing.T) {
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) < 3 {
			// Simulate network error by closing connection
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Write([]byte(netBody))
	}))
	defer server.Close()

	backoff := 20 * time.Millisecond
	fetcher := NewHTTPNetFetcher(server.URL, 5*time.Second).WithBackoff(backoff)

	start := time.Now()
	rc, err := fetcher.FetchNet(context.Background(), "a.net")
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Expected success after retries, got error: %s", err.Error())
	}
	rc.Close()

	if got := atomic.LoadInt32(&requestCount); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
	// 1x + 2x backoff
	if duration < 3*backoff {
		t.Errorf("Expected at least %v due to backoff, took %v", 3*backoff, duration)
	}
}

func TestHTTPNetFetcher_EscapesPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(netBody))
	}))
	defer server.Close()

	rc, err := NewHTTPNetFetcher(server.URL+"/", time.Second).FetchNet(context.Background(), "/nets/rw iop/x.net")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rc.Close()
	if gotPath != "/nets/rw%20iop/x.net" {
		t.Errorf("Unexpected request path %q", gotPath)
	}
}

func TestHTTPNetFetcher_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPNetFetcher(server.URL, time.Second).FetchNet(ctx, "a.net")
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}
