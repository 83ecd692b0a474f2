// Package redispass is a Redis-backed pass store. Each query key owns a sorted
// set of records scored by pass start time; members carry an insertion
// sequence prefix so that equal start times keep insertion order.
package redispass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/cache/keys"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/cache/redisstore"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/config"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
)

func init() {
	passstore.Register("redis", func(ctx context.Context, cfg config.Config, logger *slog.Logger) (passstore.Store, error) {
		cli, err := redisstore.New(ctx, cfg.RedisAddr,
			redisstore.WithReadTimeout(cfg.CacheOpTimeout),
			redisstore.WithWriteTimeout(cfg.CacheOpTimeout),
		)
		if err != nil {
			return nil, err
		}
		return New(cli, logger), nil
	})
}

type Store struct {
	cli    *redisstore.Client
	logger *slog.Logger
}

var _ passstore.Store = (*Store)(nil)

func New(cli *redisstore.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cli: cli, logger: logger}
}

func (s *Store) LookupFresh(ctx context.Context, p model.QueryParams, now time.Time) ([]model.PassRecord, error) {
	return s.lookup(ctx, "lookup_fresh", p, func(r model.PassRecord) bool { return r.FreshAt(now) })
}

func (s *Store) LookupHistoric(ctx context.Context, p model.QueryParams, now time.Time) ([]model.PassRecord, error) {
	return s.lookup(ctx, "lookup_historic", p, func(r model.PassRecord) bool { return !r.FreshAt(now) })
}

func (s *Store) lookup(ctx context.Context, op string, p model.QueryParams, keep func(model.PassRecord) bool) ([]model.PassRecord, error) {
	members, err := s.cli.ZRangeAll(ctx, keys.Key(p))
	if err != nil {
		return nil, &passstore.ReadError{Op: op, Err: err}
	}
	out := make([]model.PassRecord, 0, len(members))
	for _, m := range members {
		rec, err := decodeMember(m.Member)
		if err != nil {
			return nil, &passstore.ReadError{Op: op, Err: err}
		}
		if rec.Params() != p {
			continue
		}
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, obj model.TrackedObject, rec model.PassRecord) error {
	objBody, err := json.Marshal(obj)
	if err != nil {
		return &passstore.WriteError{Op: "encode_object", Err: err}
	}
	recBody, err := json.Marshal(rec)
	if err != nil {
		return &passstore.WriteError{Op: "encode_record", Err: err}
	}
	seq, err := s.cli.Incr(ctx, keys.SeqKey())
	if err != nil {
		return &passstore.WriteError{Op: "insert", Err: err}
	}
	member := redisstore.ScoredMember{
		Score:  float64(rec.StartUTC.UnixMilli()),
		Member: fmt.Sprintf("%020d|%s", seq, recBody),
	}
	if err := s.cli.SetAndZAdd(ctx, keys.ObjectKey(obj.ID), objBody, keys.Key(rec.Params()), member); err != nil {
		return &passstore.WriteError{Op: "insert", Err: err}
	}
	return nil
}

func (s *Store) ObjectByID(ctx context.Context, id int) (model.TrackedObject, error) {
	k := keys.ObjectKey(id)
	body, ok, err := s.cli.Get(ctx, k)
	if err != nil {
		return model.TrackedObject{}, &passstore.ReadError{Op: "object_by_id", Err: err}
	}
	if !ok {
		return model.TrackedObject{}, passstore.ErrObjectNotFound
	}
	var obj model.TrackedObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return model.TrackedObject{}, &passstore.ReadError{Op: "object_by_id", Err: err}
	}
	return obj, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.cli.Ping(ctx) }

func (s *Store) Close() error { return s.cli.Close() }

func decodeMember(m string) (model.PassRecord, error) {
	_, body, ok := strings.Cut(m, "|")
	if !ok {
		return model.PassRecord{}, errors.New("malformed pass member")
	}
	var rec model.PassRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return model.PassRecord{}, fmt.Errorf("decode pass member: %w", err)
	}
	return rec, nil
}
