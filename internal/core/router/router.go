package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/resolver"
)

// MaxPredictionDays is the provider's upper bound for the horizon.
const MaxPredictionDays = 10

type PassResolver interface {
	Resolve(ctx context.Context, p model.QueryParams) (resolver.Resolution, error)
}

type passesResponse struct {
	Info   model.TrackedObject `json:"info"`
	Passes []model.PassRecord  `json:"passes"`
	Source string              `json:"source"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// HandlePasses validates the query, resolves it and renders the outcome.
func HandlePasses(logger *slog.Logger, pr PassResolver) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/passes", sw.code, time.Since(start).Seconds())
		}()

		p, err := ParsePassQuery(r)
		if err != nil {
			writeJSON(sw, http.StatusBadRequest, statusResponse{Status: err.Error()})
			return
		}

		res, err := pr.Resolve(r.Context(), p)
		if err != nil {
			var re *passstore.ReadError
			if errors.As(err, &re) {
				writeJSON(sw, http.StatusServiceUnavailable, statusResponse{Status: "cache unavailable"})
				return
			}
			logger.ErrorContext(r.Context(), "resolve failed", "err", err)
			writeJSON(sw, http.StatusInternalServerError, statusResponse{Status: "internal error"})
			return
		}
		if !res.Found() {
			writeJSON(sw, http.StatusNotFound, statusResponse{Status: "Couldn't get data."})
			return
		}

		passes := res.Passes
		if passes == nil {
			passes = []model.PassRecord{}
		}
		sw.Header().Set("X-Pass-Source", res.Source.String())
		writeJSON(sw, http.StatusOK, passesResponse{Info: res.Object, Passes: passes, Source: res.Source.Label()})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParsePassQuery reads the six query parameters. Horizon and minimum
// visibility fall back to their defaults when absent.
func ParsePassQuery(r *http.Request) (model.QueryParams, error) {
	q := r.URL.Query()

	rawID := strings.TrimSpace(q.Get("satellite_norad_id"))
	if rawID == "" {
		return model.QueryParams{}, errors.New("missing required parameter: satellite_norad_id")
	}
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		return model.QueryParams{}, fmt.Errorf("satellite_norad_id must be a positive integer (got %q)", rawID)
	}

	lat, err := requiredFloat(q.Get("observer_latitude"), "observer_latitude")
	if err != nil {
		return model.QueryParams{}, err
	}
	lon, err := requiredFloat(q.Get("observer_longitude"), "observer_longitude")
	if err != nil {
		return model.QueryParams{}, err
	}
	alt, err := requiredFloat(q.Get("observer_altitude"), "observer_altitude")
	if err != nil {
		return model.QueryParams{}, err
	}
	days, err := optionalFloat(q.Get("prediction_days"), "prediction_days", model.DefaultPredictionDays)
	if err != nil {
		return model.QueryParams{}, err
	}
	minVis, err := optionalFloat(q.Get("min_visibility"), "min_visibility", model.DefaultMinVisibility)
	if err != nil {
		return model.QueryParams{}, err
	}

	if lat < -90 || lat > 90 {
		return model.QueryParams{}, errors.New("observer_latitude must be in [-90,90]")
	}
	if lon < -180 || lon > 180 {
		return model.QueryParams{}, errors.New("observer_longitude must be in [-180,180]")
	}
	if days <= 0 || days > MaxPredictionDays {
		return model.QueryParams{}, fmt.Errorf("prediction_days must be in (0,%d]", MaxPredictionDays)
	}
	if minVis <= 0 {
		return model.QueryParams{}, errors.New("min_visibility must be positive")
	}

	return model.QueryParams{
		SatID:          id,
		Latitude:       lat,
		Longitude:      lon,
		Altitude:       alt,
		PredictionDays: days,
		MinVisibility:  minVis,
	}, nil
}

func requiredFloat(v, name string) (float64, error) {
	if strings.TrimSpace(v) == "" {
		return 0, fmt.Errorf("missing required parameter: %s", name)
	}
	return parseFloat(v, name)
}

func optionalFloat(v, name string, def float64) (float64, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return parseFloat(v, name)
}

func parseFloat(v, name string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parse float: %w", name, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be finite", name)
	}
	return f, nil
}
