package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"
)

type Config struct {
	TargetURL      string
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	QueryCount     int
	RequestTimeout time.Duration
	Seed           int64
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.TargetURL, "target", "http://localhost:8090/passes", "passcache /passes URL")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "Concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "Test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.QueryCount, "queries", 64, "Distinct queries in pool")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 15*time.Second, "Per-request timeout")
	flag.Int64Var(&cfg.Seed, "seed", 1, "Random seed")
	flag.Parse()
	return cfg
}

type query struct {
	SatID    int
	Lat, Lon float64
	Alt      float64
}

func (q query) values() url.Values {
	v := url.Values{}
	v.Set("satellite_norad_id", strconv.Itoa(q.SatID))
	v.Set("observer_latitude", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	v.Set("observer_longitude", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	v.Set("observer_altitude", strconv.FormatFloat(q.Alt, 'f', -1, 64))
	return v
}

// makeQueries mixes a few bright objects over a handful of cities. Early
// entries are the hot set under the Zipf draw.
func makeQueries(count int, r *rand.Rand) []query {
	sats := []int{25544, 48274, 20580, 43013, 33591}
	cities := [][3]float64{
		{50.0755, 14.4378, 200}, // Prague
		{49.1951, 16.6068, 237}, // Brno
		{48.1486, 17.1077, 140}, // Bratislava
		{52.2297, 21.0122, 100}, // Warsaw
	}
	out := make([]query, 0, count)
	for i := 0; len(out) < count; i++ {
		c := cities[i%len(cities)]
		q := query{SatID: sats[(i/len(cities))%len(sats)], Lat: c[0], Lon: c[1], Alt: c[2]}
		if i >= len(sats)*len(cities) {
			// cold tail: jitter so each is its own cache entry
			q.Lat += (r.Float64() - 0.5) * 0.1
			q.Lon += (r.Float64() - 0.5) * 0.1
		}
		out = append(out, q)
	}
	return out
}

type sample struct {
	status  int
	source  string
	latency time.Duration
	err     bool
}

type Summary struct {
	Requests  int            `json:"requests"`
	Errors    int            `json:"errors"`
	BySource  map[string]int `json:"by_source"`
	ByStatus  map[string]int `json:"by_status"`
	P50Millis float64        `json:"p50_ms"`
	P95Millis float64        `json:"p95_ms"`
	P99Millis float64        `json:"p99_ms"`
	RPS       float64        `json:"rps"`
}

func summarize(samples []sample, elapsed time.Duration) Summary {
	s := Summary{BySource: map[string]int{}, ByStatus: map[string]int{}}
	lat := make([]float64, 0, len(samples))
	for _, x := range samples {
		s.Requests++
		if x.err {
			s.Errors++
			continue
		}
		s.ByStatus[strconv.Itoa(x.status)]++
		if x.source != "" {
			s.BySource[x.source]++
		}
		lat = append(lat, float64(x.latency)/float64(time.Millisecond))
	}
	sort.Float64s(lat)
	s.P50Millis = percentile(lat, 0.50)
	s.P95Millis = percentile(lat, 0.95)
	s.P99Millis = percentile(lat, 0.99)
	if elapsed > 0 {
		s.RPS = float64(s.Requests) / elapsed.Seconds()
	}
	return s
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func main() {
	cfg := loadConfig()
	target, err := url.Parse(cfg.TargetURL)
	if err != nil {
		log.Fatalf("bad target: %v", err)
	}

	r := rand.New(rand.NewSource(cfg.Seed)) // #nosec G404 -- load shape only
	queries := makeQueries(cfg.QueryCount, r)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: cfg.RequestTimeout}
	var (
		mu      sync.Mutex
		samples []sample
		wg      sync.WaitGroup
	)
	start := time.Now()
	for w := range cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wr := rand.New(rand.NewSource(cfg.Seed + int64(w) + 1)) // #nosec G404
			zipf := rand.NewZipf(wr, cfg.ZipfS, cfg.ZipfV, uint64(len(queries)-1))
			for ctx.Err() == nil {
				q := queries[zipf.Uint64()]
				u := *target
				u.RawQuery = q.values().Encode()
				smp := fire(ctx, client, u.String())
				mu.Lock()
				samples = append(samples, smp)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summarize(samples, time.Since(start))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fire(ctx context.Context, client *http.Client, u string) sample {
	t0 := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return sample{err: true}
	}
	resp, err := client.Do(req)
	if err != nil {
		return sample{err: true, latency: time.Since(t0)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return sample{status: resp.StatusCode, source: resp.Header.Get("X-Pass-Source"), latency: time.Since(t0)}
}
