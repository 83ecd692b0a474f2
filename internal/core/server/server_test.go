package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/resolver"
)

type fixedResolver struct{ res resolver.Resolution }

func (f fixedResolver) Resolve(context.Context, model.QueryParams) (resolver.Resolution, error) {
	return f.res, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func TestNewHandler_Routes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, Deps{
		Resolver: fixedResolver{res: resolver.Resolution{
			Object: model.TrackedObject{ID: 25544, Name: "SPACE STATION"},
			Source: model.SourceUpstream,
		}},
		Ready:       okPinger{},
		Metrics:     http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		MetricsPath: "/metrics",
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	cases := map[string]struct {
		code int
		body string
	}{
		"/healthz": {http.StatusOK, "ok"},
		"/readyz":  {http.StatusOK, "ready"},
		"/metrics": {http.StatusOK, "# metrics"},
		"/passes?satellite_norad_id=25544&observer_latitude=50.0755&observer_longitude=14.4378&observer_altitude=200": {http.StatusOK, "N2YO API"},
		"/nope": {http.StatusNotFound, ""},
	}
	for path, want := range cases {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != want.code || !strings.Contains(string(b), want.body) {
			t.Fatalf("GET %s: status=%d body=%q", path, resp.StatusCode, b)
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", logger, http.NotFoundHandler()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop")
	}
}
