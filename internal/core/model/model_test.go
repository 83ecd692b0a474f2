package model

import (
	"testing"
	"time"
)

func TestNewPassRecord_DerivesEndAndEOL(t *testing.T) {
	p := QueryParams{SatID: 25544, Latitude: 50.0755, Longitude: 14.4378, Altitude: 200, PredictionDays: 1, MinVisibility: 120}
	fetched := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
	raw := RawPass{StartUTC: 1740830400, StartAz: 10, EndAz: 90, StartEl: 5, EndEl: 45, Duration: 300}

	r := NewPassRecord(p, raw, fetched, FreshnessWindow)

	if !r.StartUTC.Equal(time.Unix(1740830400, 0)) {
		t.Fatalf("start=%v", r.StartUTC)
	}
	if got := r.EndUTC.Sub(r.StartUTC); got != 300*time.Second {
		t.Fatalf("end-start=%v want 5m", got)
	}
	if got := r.EOL.Sub(r.FetchedAt); got != 30*time.Minute {
		t.Fatalf("eol-fetched=%v want 30m", got)
	}
	if r.FetchedAt.Nanosecond()%1000 != 0 {
		t.Fatalf("fetched_at not truncated to microseconds: %v", r.FetchedAt)
	}
	if r.Params() != p {
		t.Fatalf("params=%+v want %+v", r.Params(), p)
	}
}

func TestFreshAt_StrictBoundary(t *testing.T) {
	fetched := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewPassRecord(QueryParams{SatID: 1}, RawPass{}, fetched, FreshnessWindow)

	if !r.FreshAt(r.EOL.Add(-time.Microsecond)) {
		t.Fatalf("record should be fresh just before eol")
	}
	if r.FreshAt(r.EOL) {
		t.Fatalf("record exactly at eol must be historic")
	}
	if r.FreshAt(r.EOL.Add(time.Minute)) {
		t.Fatalf("record after eol must be historic")
	}
}

func TestSource_Labels(t *testing.T) {
	cases := map[Source][2]string{
		SourceNone:          {"not_found", ""},
		SourceFreshCache:    {"fresh_cache", "Recent Cache"},
		SourceUpstream:      {"upstream", "N2YO API"},
		SourceHistoricCache: {"historic_cache", "Historic Cache"},
	}
	for s, want := range cases {
		if s.String() != want[0] || s.Label() != want[1] {
			t.Fatalf("source %d: got (%q,%q) want %v", s, s.String(), s.Label(), want)
		}
	}
}
