// Package sqlpass stores pass records in a relational database through gorm.
// Postgres is the production backend; SQLite serves single-node deployments
// and tests.
package sqlpass

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/cache/keys"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
)

type Store struct {
	db *gorm.DB
}

var _ passstore.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LookupFresh(ctx context.Context, p model.QueryParams, now time.Time) ([]model.PassRecord, error) {
	return s.lookup(ctx, "lookup_fresh", "param_key = ? AND eol_us > ?", p, now)
}

func (s *Store) LookupHistoric(ctx context.Context, p model.QueryParams, now time.Time) ([]model.PassRecord, error) {
	return s.lookup(ctx, "lookup_historic", "param_key = ? AND eol_us <= ?", p, now)
}

func (s *Store) lookup(ctx context.Context, op, where string, p model.QueryParams, now time.Time) ([]model.PassRecord, error) {
	start := time.Now()
	var rows []CachedPass
	err := s.db.WithContext(ctx).
		Where(where, keys.Key(p), now.UnixMicro()).
		Order("start_us ASC, id ASC").
		Find(&rows).Error
	observability.ObserveCacheOp("sql_"+op, err, time.Since(start).Seconds())
	if err != nil {
		return nil, &passstore.ReadError{Op: op, Err: err}
	}
	out := make([]model.PassRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, obj model.TrackedObject, rec model.PassRecord) error {
	start := time.Now()
	row := toRow(rec)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o := TrackedObject{ID: obj.ID, Name: obj.Name, UpdatedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&o).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	observability.ObserveCacheOp("sql_insert", err, time.Since(start).Seconds())
	if err != nil {
		return &passstore.WriteError{Op: "insert", Err: err}
	}
	return nil
}

func (s *Store) ObjectByID(ctx context.Context, id int) (model.TrackedObject, error) {
	var o TrackedObject
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.TrackedObject{}, passstore.ErrObjectNotFound
	}
	if err != nil {
		return model.TrackedObject{}, &passstore.ReadError{Op: "object_by_id", Err: err}
	}
	return model.TrackedObject{ID: o.ID, Name: o.Name}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
