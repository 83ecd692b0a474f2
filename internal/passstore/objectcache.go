package passstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
)

// ObjectCache keeps recently seen tracked objects in memory so that a cache
// hit does not cost a second store query for the display name.
type ObjectCache struct {
	Store
	lru *lru.Cache[int, model.TrackedObject]
}

var _ Store = (*ObjectCache)(nil)

func NewObjectCache(inner Store, size int) *ObjectCache {
	if size <= 0 {
		size = 1024
	}
	c, _ := lru.New[int, model.TrackedObject](size)
	return &ObjectCache{Store: inner, lru: c}
}

func (c *ObjectCache) ObjectByID(ctx context.Context, id int) (model.TrackedObject, error) {
	if obj, ok := c.lru.Get(id); ok {
		observability.ObserveObjectCache(true)
		return obj, nil
	}
	observability.ObserveObjectCache(false)
	obj, err := c.Store.ObjectByID(ctx, id)
	if err != nil {
		return model.TrackedObject{}, err
	}
	c.lru.Add(id, obj)
	return obj, nil
}

func (c *ObjectCache) Insert(ctx context.Context, obj model.TrackedObject, rec model.PassRecord) error {
	if err := c.Store.Insert(ctx, obj, rec); err != nil {
		return err
	}
	c.lru.Add(obj.ID, obj)
	return nil
}

func (c *ObjectCache) Len() int { return c.lru.Len() }
