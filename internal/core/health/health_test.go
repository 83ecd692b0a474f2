package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadiness_ReflectsStorePing(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   int
		status string
	}{
		{"ready", nil, http.StatusOK, `"status":"ready"`},
		{"down", errors.New("dial tcp: refused"), http.StatusServiceUnavailable, `"status":"not_ready"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Readiness(pingFunc(func(context.Context) error { return tc.err }), time.Second)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != tc.code {
				t.Fatalf("status=%d want %d", rr.Code, tc.code)
			}
			if !strings.Contains(rr.Body.String(), tc.status) {
				t.Fatalf("body=%s", rr.Body)
			}
		})
	}
}
