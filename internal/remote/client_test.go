package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/michaelbrown/polyrun/internal/execution"
)

var testCreds = Credentials{ClientID: "id", ClientSecret: "secret"}

// countingDoer counts requests and fails them all.
type countingDoer struct {
	calls atomic.Int32
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return nil, errors.New("unexpected request")
}

func fakeService(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRunSendsWireRequest(t *testing.T) {
	var got request
	srv, calls := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"statusCode": 200, "output": "7\n", "cpuTime": "0.01", "memory": "100"}`))
	})

	c := NewClient(testCreds, WithEndpoint(srv.URL))
	res := c.Run(context.Background(), "print(3+4)", "python", "in")

	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Err())
	}
	if res.Output != "7\n" {
		t.Errorf("output = %q, want %q", res.Output, "7\n")
	}
	if calls.Load() != 1 {
		t.Errorf("service called %d times, want 1", calls.Load())
	}

	want := request{
		Script:       "print(3+4)",
		Language:     "python3",
		VersionIndex: "3",
		ClientID:     "id",
		ClientSecret: "secret",
		Stdin:        "in",
	}
	if got != want {
		t.Errorf("wire request = %+v, want %+v", got, want)
	}
}

func TestRunVersionPin(t *testing.T) {
	var got request
	srv, _ := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	})

	c := NewClient(testCreds, WithEndpoint(srv.URL), WithVersionIndex("5"))
	c.Run(context.Background(), "x", "java", "")
	if got.VersionIndex != "5" || got.Language != "java" {
		t.Errorf("wire request = %+v", got)
	}
}

func TestRunUnsupportedLanguageMakesNoCall(t *testing.T) {
	d := &countingDoer{}
	c := NewClient(testCreds, WithHTTPClient(d))

	res := c.Run(context.Background(), "x", "cobol", "")
	if res.Kind() != execution.UnsupportedLanguage {
		t.Errorf("kind = %q, want %q", res.Kind(), execution.UnsupportedLanguage)
	}
	if d.calls.Load() != 0 {
		t.Errorf("transport called %d times, want 0", d.calls.Load())
	}
}

func TestRunMissingCredentialsMakesNoCall(t *testing.T) {
	for _, creds := range []Credentials{{}, {ClientID: "id"}, {ClientSecret: "s"}} {
		d := &countingDoer{}
		c := NewClient(creds, WithHTTPClient(d))

		res := c.Run(context.Background(), "print(1)", "python", "")
		if res.Kind() != execution.ConfigurationError {
			t.Errorf("%+v: kind = %q, want %q", creds, res.Kind(), execution.ConfigurationError)
		}
		if d.calls.Load() != 0 {
			t.Errorf("%+v: transport called %d times, want 0", creds, d.calls.Load())
		}
	}
}

func TestRunHTTPError(t *testing.T) {
	srv, calls := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	res := NewClient(testCreds, WithEndpoint(srv.URL)).Run(context.Background(), "x", "python", "")
	if res.Kind() != execution.InfrastructureError {
		t.Fatalf("kind = %q, want %q", res.Kind(), execution.InfrastructureError)
	}
	if !strings.Contains(res.Failure.Message, "500") {
		t.Errorf("message %q does not carry the status", res.Failure.Message)
	}
	if calls.Load() != 1 {
		t.Errorf("service called %d times, want exactly 1 (no retry)", calls.Load())
	}
}

func TestRunProxyAnnotatedFailure(t *testing.T) {
	srv, _ := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(ProxyErrorHeader, "upstream_unreachable")
		w.WriteHeader(http.StatusBadGateway)
	})

	res := NewClient(testCreds, WithEndpoint(srv.URL)).Run(context.Background(), "x", "python", "")
	if res.Kind() != execution.ConfigurationError {
		t.Fatalf("kind = %q, want %q", res.Kind(), execution.ConfigurationError)
	}
	if !strings.Contains(res.Failure.Message, "proxy") {
		t.Errorf("message %q is not actionable", res.Failure.Message)
	}
}

func TestRunUnreachableEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	res := NewClient(testCreds, WithEndpoint("http://"+addr+"/execute")).Run(context.Background(), "x", "python", "")
	if res.Kind() != execution.ConfigurationError {
		t.Fatalf("kind = %q, want %q (%v)", res.Kind(), execution.ConfigurationError, res.Err())
	}
	if !strings.Contains(res.Failure.Message, "proxy") {
		t.Errorf("message %q does not mention the proxy", res.Failure.Message)
	}
}

func TestRunCanceledContext(t *testing.T) {
	srv, _ := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewClient(testCreds, WithEndpoint(srv.URL)).Run(ctx, "x", "python", "")
	if res.Kind() != execution.InfrastructureError {
		t.Errorf("kind = %q, want %q", res.Kind(), execution.InfrastructureError)
	}
}

func TestSupports(t *testing.T) {
	c := NewClient(Credentials{}, WithLanguages(map[string]Language{"py": {Code: "python3"}}))
	if !c.Supports("py") || c.Supports("python") {
		t.Error("Supports does not follow the configured map")
	}
}
