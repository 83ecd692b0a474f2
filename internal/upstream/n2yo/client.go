// Package n2yo calls the N2YO visual passes endpoint and converts its
// response into domain types.
package n2yo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
)

const maxErrorBody = 4 << 10

type Result struct {
	Object            model.TrackedObject
	Passes            []model.RawPass
	TransactionsCount int
}

type Client struct {
	logger  *slog.Logger
	http    *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
}

type Option func(*Client)

// WithTimeout bounds one provider call; zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRatePerMinute installs a token bucket; n <= 0 disables it.
func WithRatePerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

func New(logger *slog.Logger, httpClient *http.Client, baseURL, apiKey string, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		logger:  logger,
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type wirePass struct {
	StartUTC *int64   `json:"startUTC"`
	StartAz  float64  `json:"startAz"`
	EndAz    float64  `json:"endAz"`
	StartEl  float64  `json:"startEl"`
	EndEl    float64  `json:"endEl"`
	Duration *float64 `json:"duration"`
}

type wireInfo struct {
	SatID             *int   `json:"satid"`
	SatName           string `json:"satname"`
	TransactionsCount int    `json:"transactionscount"`
	PassesCount       int    `json:"passescount"`
}

type wireResponse struct {
	Info   *wireInfo   `json:"info"`
	Passes *[]wirePass `json:"passes"`
	Error  string      `json:"error"`
}

// PassesURL renders the provider URL for p. Numbers keep full precision.
func (c *Client) PassesURL(p model.QueryParams) string {
	return fmt.Sprintf("%s/visualpasses/%d/%s/%s/%s/%s/%s/&apiKey=%s",
		c.baseURL, p.SatID,
		formatNum(p.Latitude), formatNum(p.Longitude), formatNum(p.Altitude),
		formatNum(p.PredictionDays), formatNum(p.MinVisibility),
		c.apiKey)
}

// FetchPasses performs one provider call. Every failure is an *Error.
func (c *Client) FetchPasses(ctx context.Context, p model.QueryParams) (Result, error) {
	start := time.Now()
	res, err := c.fetch(ctx, p)
	observability.ObserveUpstreamLatency("n2yo", time.Since(start).Seconds())
	if err != nil {
		var ue *Error
		if errors.As(err, &ue) {
			observability.IncUpstreamFailure(ue.Kind.String())
		}
		return Result{}, err
	}
	return res, nil
}

func (c *Client) fetch(ctx context.Context, p model.QueryParams) (Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{}, &Error{Kind: KindTransport, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PassesURL(p), nil)
	if err != nil {
		return Result{}, &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, &Error{Kind: KindTransport, Err: redactKey(err, c.apiKey)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Result{}, &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var body wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, &Error{Kind: KindShape, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return c.convert(ctx, p, body)
}

func (c *Client) convert(ctx context.Context, p model.QueryParams, body wireResponse) (Result, error) {
	if body.Info == nil {
		if body.Error != "" {
			return Result{}, &Error{Kind: KindShape, Err: fmt.Errorf("provider error: %s", body.Error)}
		}
		return Result{}, &Error{Kind: KindShape, Err: errors.New(`missing "info"`)}
	}
	if body.Passes == nil {
		return Result{}, &Error{Kind: KindShape, Err: errors.New(`missing "passes"`)}
	}

	id := p.SatID
	if body.Info.SatID != nil {
		id = *body.Info.SatID
	}
	passes := make([]model.RawPass, 0, len(*body.Passes))
	for i, wp := range *body.Passes {
		if wp.StartUTC == nil || wp.Duration == nil {
			return Result{}, &Error{Kind: KindShape, Err: fmt.Errorf("pass %d lacks startUTC or duration", i)}
		}
		passes = append(passes, model.RawPass{
			StartUTC: *wp.StartUTC,
			StartAz:  wp.StartAz,
			EndAz:    wp.EndAz,
			StartEl:  wp.StartEl,
			EndEl:    wp.EndEl,
			Duration: *wp.Duration,
		})
	}

	c.logger.DebugContext(ctx, "n2yo visual passes",
		"satid", id, "passes", len(passes), "transactions", body.Info.TransactionsCount)
	if body.Info.PassesCount != len(passes) {
		c.logger.WarnContext(ctx, "n2yo passescount mismatch",
			"satid", id, "passescount", body.Info.PassesCount, "passes", len(passes))
	}

	return Result{
		Object:            model.TrackedObject{ID: id, Name: body.Info.SatName},
		Passes:            passes,
		TransactionsCount: body.Info.TransactionsCount,
	}, nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// redactKey keeps the credential out of *url.Error messages.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
