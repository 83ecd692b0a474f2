// Package passstore defines the cache store for pass predictions and the
// registry of storage drivers.
package passstore

import (
	"context"
	"errors"
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
)

// ErrObjectNotFound is returned by ObjectByID for an unknown identifier.
var ErrObjectNotFound = errors.New("tracked object not found")

// Store persists pass records keyed by exact query parameters. Fresh and
// historic lookups partition the same records by comparing now against each
// record's end-of-life: fresh iff now < eol.
type Store interface {
	// LookupFresh returns records for p still fresh at now, by start time then insertion order.
	LookupFresh(ctx context.Context, p model.QueryParams, now time.Time) ([]model.PassRecord, error)
	// LookupHistoric returns records for p whose end-of-life is at or before now, same order.
	LookupHistoric(ctx context.Context, p model.QueryParams, now time.Time) ([]model.PassRecord, error)
	// Insert persists rec and upserts obj by identifier.
	Insert(ctx context.Context, obj model.TrackedObject, rec model.PassRecord) error
	ObjectByID(ctx context.Context, id int) (model.TrackedObject, error)
	Ping(ctx context.Context) error
	Close() error
}

// ReadError marks a failed lookup. It is a fault of the store, not an empty result.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return "cache read " + e.Op + ": " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError marks a failed insert.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return "cache write " + e.Op + ": " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }
