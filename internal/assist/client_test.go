package assist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPClientConfig{
		BaseURL: server.URL,
		APIKey:  "secret-key",
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	return client
}

func TestCompleteSendsBearerAndReturnsContent(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"SELECT 1"}}]}`))
	})

	reply, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, 0)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "SELECT 1" {
		t.Fatalf("reply = %q", reply)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestCompleteMapsStatusToTypedErrors(t *testing.T) {
	cases := []struct {
		status      int
		code        Code
		recoverable bool
	}{
		{http.StatusUnauthorized, CodeAuth, false},
		{http.StatusForbidden, CodeAuth, false},
		{http.StatusTooManyRequests, CodeRateLimit, true},
		{http.StatusBadRequest, CodeBadRequest, false},
		{http.StatusInternalServerError, CodeAPIError, true},
		{http.StatusBadGateway, CodeAPIError, true},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("upstream detail"))
		})
		_, err := client.Complete(context.Background(), nil, 0)
		var typed *Error
		if !errors.As(err, &typed) {
			t.Fatalf("status %d: err = %v, want *Error", tc.status, err)
		}
		if typed.Code != tc.code {
			t.Fatalf("status %d: code = %q, want %q", tc.status, typed.Code, tc.code)
		}
		if typed.Recoverable != tc.recoverable {
			t.Fatalf("status %d: recoverable = %v", tc.status, typed.Recoverable)
		}
		if typed.Technical != "upstream detail" {
			t.Fatalf("status %d: technical = %q", tc.status, typed.Technical)
		}
	}
}

func TestCompleteMapsTransportFailureToNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client, err := NewHTTPClient(HTTPClientConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	server.Close()

	_, err = client.Complete(context.Background(), nil, 0)
	var typed *Error
	if !errors.As(err, &typed) || typed.Code != CodeNetwork {
		t.Fatalf("err = %v, want NETWORK", err)
	}
}

func TestCompleteEmptyChoicesIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := client.Complete(context.Background(), nil, 0)
	var typed *Error
	if !errors.As(err, &typed) || typed.Code != CodeAPIError {
		t.Fatalf("err = %v, want API_ERROR", err)
	}
}

func TestNewHTTPClientRequiresCredential(t *testing.T) {
	if _, err := NewHTTPClient(HTTPClientConfig{BaseURL: "http://localhost"}); err == nil {
		t.Fatal("missing api key should fail")
	}
	if _, err := NewHTTPClient(HTTPClientConfig{APIKey: "k"}); err == nil {
		t.Fatal("missing base URL should fail")
	}
}
