package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/resolver"
)

const p1Query = "/passes?satellite_norad_id=25544&observer_latitude=50.0755&observer_longitude=14.4378&observer_altitude=200"

func TestParsePassQuery_DefaultsAndExactValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, p1Query, nil)
	p, err := ParsePassQuery(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := model.QueryParams{SatID: 25544, Latitude: 50.0755, Longitude: 14.4378, Altitude: 200, PredictionDays: 1, MinVisibility: 120}
	if p != want {
		t.Fatalf("got %+v want %+v", p, want)
	}
}

func TestParsePassQuery_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing id":    "/passes?observer_latitude=1&observer_longitude=1&observer_altitude=0",
		"zero id":       "/passes?satellite_norad_id=0&observer_latitude=1&observer_longitude=1&observer_altitude=0",
		"bad id":        "/passes?satellite_norad_id=iss&observer_latitude=1&observer_longitude=1&observer_altitude=0",
		"missing lat":   "/passes?satellite_norad_id=1&observer_longitude=1&observer_altitude=0",
		"missing alt":   "/passes?satellite_norad_id=1&observer_latitude=1&observer_longitude=1",
		"blank alt":     "/passes?satellite_norad_id=1&observer_latitude=1&observer_longitude=1&observer_altitude=",
		"lat range":     "/passes?satellite_norad_id=1&observer_latitude=91&observer_longitude=1&observer_altitude=0",
		"lon range":     "/passes?satellite_norad_id=1&observer_latitude=1&observer_longitude=-181&observer_altitude=0",
		"nan":           "/passes?satellite_norad_id=1&observer_latitude=NaN&observer_longitude=1&observer_altitude=0",
		"zero days":     "/passes?satellite_norad_id=1&observer_latitude=1&observer_longitude=1&observer_altitude=0&prediction_days=0",
		"too many days": "/passes?satellite_norad_id=1&observer_latitude=1&observer_longitude=1&observer_altitude=0&prediction_days=11",
		"neg min vis":   "/passes?satellite_norad_id=1&observer_latitude=1&observer_longitude=1&observer_altitude=0&min_visibility=-5",
	}
	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePassQuery(httptest.NewRequest(http.MethodGet, url, nil)); err == nil {
				t.Fatalf("expected error for %s", url)
			}
		})
	}
}

type stubResolver struct {
	res resolver.Resolution
	err error
	got model.QueryParams
}

func (s *stubResolver) Resolve(_ context.Context, p model.QueryParams) (resolver.Resolution, error) {
	s.got = p
	return s.res, s.err
}

func serve(t *testing.T, pr PassResolver, url string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	HandlePasses(nil, pr)(rr, httptest.NewRequest(http.MethodGet, url, nil))
	return rr
}

func TestHandlePasses_RendersResolution(t *testing.T) {
	fetched := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := model.NewPassRecord(model.QueryParams{SatID: 25544}, model.RawPass{StartUTC: 1740830400, Duration: 300}, fetched, model.FreshnessWindow)
	stub := &stubResolver{res: resolver.Resolution{
		Object: model.TrackedObject{ID: 25544, Name: "SPACE STATION"},
		Passes: []model.PassRecord{rec},
		Source: model.SourceHistoricCache,
	}}

	rr := serve(t, stub, p1Query)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	if got := rr.Header().Get("X-Pass-Source"); got != "historic_cache" {
		t.Fatalf("X-Pass-Source=%q", got)
	}
	var body struct {
		Info   map[string]any   `json:"info"`
		Passes []map[string]any `json:"passes"`
		Source string           `json:"source"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != "Historic Cache" || body.Info["satname"] != "SPACE STATION" || len(body.Passes) != 1 {
		t.Fatalf("body=%+v", body)
	}
	if body.Passes[0]["duration"] != float64(300) {
		t.Fatalf("pass=%v", body.Passes[0])
	}
}

func TestHandlePasses_EmptyUpstreamRendersEmptyList(t *testing.T) {
	stub := &stubResolver{res: resolver.Resolution{Object: model.TrackedObject{ID: 25544}, Source: model.SourceUpstream}}
	rr := serve(t, stub, p1Query)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"passes":[]`) {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
}

func TestHandlePasses_Outcomes(t *testing.T) {
	cases := []struct {
		name string
		stub *stubResolver
		url  string
		code int
		body string
	}{
		{"not found", &stubResolver{}, p1Query, http.StatusNotFound, "Couldn't get data."},
		{"read error", &stubResolver{err: &passstore.ReadError{Op: "lookup_fresh", Err: errors.New("down")}}, p1Query, http.StatusServiceUnavailable, "cache unavailable"},
		{"other error", &stubResolver{err: errors.New("bug")}, p1Query, http.StatusInternalServerError, "internal error"},
		{"bad query", &stubResolver{}, "/passes?satellite_norad_id=x", http.StatusBadRequest, "satellite_norad_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, tc.stub, tc.url)
			if rr.Code != tc.code {
				t.Fatalf("status=%d want %d", rr.Code, tc.code)
			}
			if !strings.Contains(rr.Body.String(), tc.body) {
				t.Fatalf("body=%s want substring %q", rr.Body, tc.body)
			}
		})
	}
}
