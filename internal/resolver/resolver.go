// Package resolver answers pass queries from the freshest source available:
// fresh cache, then the upstream provider, then historic cache.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/cache/keys"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/logger"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/upstream/n2yo"
)

type Upstream interface {
	FetchPasses(ctx context.Context, p model.QueryParams) (n2yo.Result, error)
}

// EventSink receives every terminal resolution. It must not block.
type EventSink interface {
	PublishResolution(ctx context.Context, p model.QueryParams, res Resolution)
}

// Resolution is the terminal outcome of Resolve. Source is SourceNone when no
// data exists anywhere; that is a result, not an error.
type Resolution struct {
	Object model.TrackedObject
	Passes []model.PassRecord
	Source model.Source
}

func (r Resolution) Found() bool { return r.Source != model.SourceNone }

type Orchestrator struct {
	logger    *slog.Logger
	store     passstore.Store
	upstream  Upstream
	now       func() time.Time
	window    time.Duration
	writeBack *WriteBack
	writeCfg  WriteBackConfig
	dedupe    bool
	flight    singleflight.Group
	events    EventSink
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithFreshnessWindow(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithWriteBack moves cache inserts off the request path. Without it inserts
// run inline and their failures are still swallowed.
func WithWriteBack(w *WriteBack) Option {
	return func(o *Orchestrator) { o.writeBack = w }
}

// WithInflightDedupe makes concurrent misses on one key share a provider call.
func WithInflightDedupe(on bool) Option {
	return func(o *Orchestrator) { o.dedupe = on }
}

func WithEvents(s EventSink) Option {
	return func(o *Orchestrator) { o.events = s }
}

// New builds an orchestrator over store and upstream. Cache inserts after an
// upstream success run inline on the calling goroutine unless WithWriteBack
// is given; the service binary always passes a WriteBack so responses never
// wait on the store. Inline mode is kept for tools and tests that want the
// cache populated when Resolve returns.
func New(logger *slog.Logger, store passstore.Store, upstream Upstream, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		logger:   logger,
		store:    store,
		upstream: upstream,
		now:      time.Now,
		window:   model.FreshnessWindow,
		writeCfg: WriteBackConfig{Retries: 0, OpTimeout: 2 * time.Second, Backoff: 50 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resolve walks the three tiers in order and stops at the first that yields
// data. Upstream failures fall through; cache read failures are returned.
func (o *Orchestrator) Resolve(ctx context.Context, p model.QueryParams) (Resolution, error) {
	fresh, err := o.store.LookupFresh(ctx, p, o.now())
	if err != nil {
		return Resolution{}, o.readFailure(ctx, p, "lookup_fresh", err)
	}
	if len(fresh) > 0 {
		obj, err := o.object(ctx, fresh[0].SatID)
		if err != nil {
			return Resolution{}, o.readFailure(ctx, p, "object_by_id", err)
		}
		return o.finish(ctx, p, Resolution{Object: obj, Passes: fresh, Source: model.SourceFreshCache}), nil
	}

	res, err := o.fetchUpstream(ctx, p)
	if err == nil {
		return o.finish(ctx, p, res), nil
	}
	o.logUpstreamFailure(ctx, p, err)

	hist, err := o.store.LookupHistoric(ctx, p, o.now())
	if err != nil {
		return Resolution{}, o.readFailure(ctx, p, "lookup_historic", err)
	}
	if len(hist) == 0 {
		return o.finish(ctx, p, Resolution{Source: model.SourceNone}), nil
	}
	obj, err := o.object(ctx, hist[0].SatID)
	if err != nil {
		return Resolution{}, o.readFailure(ctx, p, "object_by_id", err)
	}
	return o.finish(ctx, p, Resolution{Object: obj, Passes: hist, Source: model.SourceHistoricCache}), nil
}

func (o *Orchestrator) fetchUpstream(ctx context.Context, p model.QueryParams) (Resolution, error) {
	if !o.dedupe {
		return o.fetchAndPersist(ctx, p)
	}
	v, err, shared := o.flight.Do(keys.Key(p), func() (any, error) {
		// the leader's caller may go away; followers still want the answer
		return o.fetchAndPersist(context.WithoutCancel(ctx), p)
	})
	if shared {
		o.logger.DebugContext(ctx, "upstream call shared", "params", p.String())
	}
	if err != nil {
		return Resolution{}, err
	}
	return v.(Resolution), nil
}

func (o *Orchestrator) fetchAndPersist(ctx context.Context, p model.QueryParams) (Resolution, error) {
	up, err := o.upstream.FetchPasses(ctx, p)
	if err != nil {
		return Resolution{}, err
	}

	obj := up.Object
	if obj.ID != p.SatID {
		if obj.ID != 0 {
			o.logger.WarnContext(ctx, "provider returned a different object id",
				"requested", p.SatID, "returned", obj.ID)
		}
		obj.ID = p.SatID
	}

	fetchedAt := o.now()
	records := make([]model.PassRecord, 0, len(up.Passes))
	for _, raw := range up.Passes {
		records = append(records, model.NewPassRecord(p, raw, fetchedAt, o.window))
	}
	if len(records) > 0 {
		o.persist(ctx, Batch{Object: obj, Records: records})
	}
	return Resolution{Object: obj, Passes: records, Source: model.SourceUpstream}, nil
}

func (o *Orchestrator) persist(ctx context.Context, b Batch) {
	if o.writeBack != nil {
		o.writeBack.Submit(b)
		return
	}
	for _, rec := range b.Records {
		if err := insertWithRetry(o.store, b.Object, rec, o.writeCfg); err != nil {
			logWriteFailure(ctx, o.logger, b.Object, rec, err)
		}
	}
}

func (o *Orchestrator) object(ctx context.Context, id int) (model.TrackedObject, error) {
	obj, err := o.store.ObjectByID(ctx, id)
	if errors.Is(err, passstore.ErrObjectNotFound) {
		o.logger.WarnContext(ctx, "cached passes without tracked object", "satid", id)
		return model.TrackedObject{ID: id}, nil
	}
	return obj, err
}

func (o *Orchestrator) readFailure(ctx context.Context, p model.QueryParams, op string, err error) error {
	o.logger.ErrorContext(ctx, "cache read failed", "op", op, "params", p.String(), "err", err)
	var re *passstore.ReadError
	if errors.As(err, &re) {
		return err
	}
	return &passstore.ReadError{Op: op, Err: err}
}

func (o *Orchestrator) logUpstreamFailure(ctx context.Context, p model.QueryParams, err error) {
	kind := "unknown"
	var ue *n2yo.Error
	if errors.As(err, &ue) {
		kind = ue.Kind.String()
	}
	o.logger.WarnContext(ctx, "upstream failed, trying historic cache",
		"kind", kind, "params", p.String(), "err", err)
}

func (o *Orchestrator) finish(ctx context.Context, p model.QueryParams, res Resolution) Resolution {
	observability.ObserveResolution(res.Source.String())
	lctx := logger.WithSource(ctx, res.Source.String())
	if res.Found() {
		o.logger.InfoContext(lctx, "passes resolved", "satid", p.SatID, "passes", len(res.Passes))
	} else {
		o.logger.InfoContext(lctx, "no passes in any tier", "params", p.String())
	}
	if o.events != nil {
		o.events.PublishResolution(ctx, p, res)
	}
	return res
}
