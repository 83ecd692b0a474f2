// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"time"
)

const (
	DefaultPredictionDays = 1
	DefaultMinVisibility  = 120

	// FreshnessWindow is how long a fetched pass stays preferred over a new upstream call.
	FreshnessWindow = 30 * time.Minute
)

// QueryParams identifies one pass prediction query. Two queries hit the same
// cache entry only when all six fields are exactly equal.
type QueryParams struct {
	SatID          int
	Latitude       float64
	Longitude      float64
	Altitude       float64 // meters
	PredictionDays float64
	MinVisibility  float64 // seconds
}

func (p QueryParams) String() string {
	return fmt.Sprintf("sat=%d lat=%g lon=%g alt=%g days=%g min_vis=%g",
		p.SatID, p.Latitude, p.Longitude, p.Altitude, p.PredictionDays, p.MinVisibility)
}

// TrackedObject is an orbiting object known to the upstream provider.
type TrackedObject struct {
	ID   int    `json:"satid"`
	Name string `json:"satname"`
}

// RawPass is one pass as the provider reports it: epoch seconds, degrees, seconds.
type RawPass struct {
	StartUTC int64
	StartAz  float64
	EndAz    float64
	StartEl  float64
	EndEl    float64
	Duration float64
}

// PassRecord is a cached pass. It is never mutated after creation; whether it
// is fresh or historic depends only on the time it is looked at.
type PassRecord struct {
	SatID          int       `json:"sat_id"`
	StartUTC       time.Time `json:"start_utc"`
	EndUTC         time.Time `json:"end_utc"`
	StartAz        float64   `json:"start_az"`
	EndAz          float64   `json:"end_az"`
	StartElev      float64   `json:"start_elev"`
	EndElev        float64   `json:"end_elev"`
	Duration       float64   `json:"duration"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Altitude       float64   `json:"altitude"`
	PredictionDays float64   `json:"prediction_days"`
	MinVisibility  float64   `json:"min_visibility"`
	FetchedAt      time.Time `json:"fetched_at"`
	EOL            time.Time `json:"eol"`
}

// NewPassRecord converts a provider pass fetched at fetchedAt into a cache record
// whose end-of-life is fetchedAt+window.
func NewPassRecord(p QueryParams, raw RawPass, fetchedAt time.Time, window time.Duration) PassRecord {
	// relational stores keep microseconds
	fetched := fetchedAt.UTC().Truncate(time.Microsecond)
	start := time.Unix(raw.StartUTC, 0).UTC()
	return PassRecord{
		SatID:          p.SatID,
		StartUTC:       start,
		EndUTC:         start.Add(time.Duration(raw.Duration * float64(time.Second))),
		StartAz:        raw.StartAz,
		EndAz:          raw.EndAz,
		StartElev:      raw.StartEl,
		EndElev:        raw.EndEl,
		Duration:       raw.Duration,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		Altitude:       p.Altitude,
		PredictionDays: p.PredictionDays,
		MinVisibility:  p.MinVisibility,
		FetchedAt:      fetched,
		EOL:            fetched.Add(window),
	}
}

// Params returns the query parameters the record was fetched for.
func (r PassRecord) Params() QueryParams {
	return QueryParams{
		SatID:          r.SatID,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Altitude:       r.Altitude,
		PredictionDays: r.PredictionDays,
		MinVisibility:  r.MinVisibility,
	}
}

// FreshAt reports whether now is strictly before the record's end-of-life.
func (r PassRecord) FreshAt(now time.Time) bool {
	return now.Before(r.EOL)
}

// Source tags where a resolution's passes came from.
type Source int

const (
	SourceNone Source = iota
	SourceFreshCache
	SourceUpstream
	SourceHistoricCache
)

// String is the metric/log label.
func (s Source) String() string {
	switch s {
	case SourceFreshCache:
		return "fresh_cache"
	case SourceUpstream:
		return "upstream"
	case SourceHistoricCache:
		return "historic_cache"
	default:
		return "not_found"
	}
}

// Label is the provenance text shown to end users.
func (s Source) Label() string {
	switch s {
	case SourceFreshCache:
		return "Recent Cache"
	case SourceUpstream:
		return "N2YO API"
	case SourceHistoricCache:
		return "Historic Cache"
	default:
		return ""
	}
}
