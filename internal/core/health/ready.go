package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is anything whose reachability gates readiness, such as the pass store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func Readiness(p Pinger, timeout time.Duration) http.HandlerFunc {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out := resp{Status: "ready"}
		code := http.StatusOK
		if err := p.Ping(ctx); err != nil {
			out = resp{Status: "not_ready", Error: err.Error()}
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	}
}
