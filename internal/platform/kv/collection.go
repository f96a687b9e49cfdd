package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
)

const maxCASAttempts = 5

// Collection is a typed view over one namespace. Each item is stored under
// its own key, so writers only contend on the entity they touch.
type Collection[T any] struct {
	store     Store
	namespace string
	id        func(T) string
	seed      func() []T
	seeded    atomic.Bool
}

// NewCollection returns a collection keyed by id. seed, when non-nil, is
// materialized the first time the namespace is touched.
func NewCollection[T any](store Store, namespace string, id func(T) string, seed func() []T) *Collection[T] {
	return &Collection[T]{store: store, namespace: namespace, id: id, seed: seed}
}

func (c *Collection[T]) Namespace() string {
	return c.namespace
}

// ensureSeeded writes the seed once per namespace. Concurrent callers may
// both try; create-if-absent keeps the result identical.
func (c *Collection[T]) ensureSeeded(ctx context.Context) error {
	if c.seed == nil || c.seeded.Load() {
		return nil
	}
	_, err := c.store.Get(ctx, nsMeta, c.namespace)
	if err == nil {
		c.seeded.Store(true)
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	for _, item := range c.seed() {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode seed %s: %w", c.namespace, err)
		}
		if _, err := c.store.Put(ctx, c.namespace, c.id(item), raw, 0); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}
	if _, err := c.store.Put(ctx, nsMeta, c.namespace, []byte(`{"seeded":true}`), Any); err != nil {
		return err
	}
	c.seeded.Store(true)
	return nil
}

// MarkSeeded records the namespace as initialized without writing the seed.
func (c *Collection[T]) MarkSeeded(ctx context.Context) error {
	if _, err := c.store.Put(ctx, nsMeta, c.namespace, []byte(`{"seeded":true}`), Any); err != nil {
		return err
	}
	c.seeded.Store(true)
	return nil
}

// List returns every item in insertion order, keeping only those accepted by
// all filters.
func (c *Collection[T]) List(ctx context.Context, filters ...func(T) bool) ([]T, error) {
	if err := c.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	entries, err := c.store.List(ctx, c.namespace)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(entries))
next:
	for _, entry := range entries {
		item, err := c.decode(entry)
		if err != nil {
			return nil, err
		}
		for _, keep := range filters {
			if !keep(item) {
				continue next
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Add stores item if its id is free and returns it unchanged.
func (c *Collection[T]) Add(ctx context.Context, item T) (T, error) {
	if err := c.ensureSeeded(ctx); err != nil {
		return item, err
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return item, fmt.Errorf("encode %s: %w", c.namespace, err)
	}
	if _, err := c.store.Put(ctx, c.namespace, c.id(item), raw, 0); err != nil {
		return item, err
	}
	return item, nil
}

// Update replaces the stored item with the same id. A missing id is a no-op,
// and rewriting identical content leaves the entry untouched.
func (c *Collection[T]) Update(ctx context.Context, item T) (T, error) {
	if err := c.ensureSeeded(ctx); err != nil {
		return item, err
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return item, fmt.Errorf("encode %s: %w", c.namespace, err)
	}
	key := c.id(item)
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := c.store.Get(ctx, c.namespace, key)
		if errors.Is(err, ErrNotFound) {
			return item, nil
		}
		if err != nil {
			return item, err
		}
		if bytes.Equal(current.Value, raw) {
			return item, nil
		}
		_, err = c.store.Put(ctx, c.namespace, key, raw, current.Version)
		switch {
		case err == nil:
			return item, nil
		case errors.Is(err, ErrNotFound):
			return item, nil
		case errors.Is(err, ErrVersionConflict):
			continue
		default:
			return item, err
		}
	}
	return item, ErrVersionConflict
}

// Remove deletes the item with id. A missing id is a no-op.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	if err := c.ensureSeeded(ctx); err != nil {
		return err
	}
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := c.store.Get(ctx, c.namespace, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		err = c.store.Delete(ctx, c.namespace, id, current.Version)
		switch {
		case err == nil, errors.Is(err, ErrNotFound):
			return nil
		case errors.Is(err, ErrVersionConflict):
			continue
		default:
			return err
		}
	}
	return ErrVersionConflict
}

// Get returns the item and its version. Missing ids report ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, int64, error) {
	var zero T
	if err := c.ensureSeeded(ctx); err != nil {
		return zero, 0, err
	}
	entry, err := c.store.Get(ctx, c.namespace, id)
	if err != nil {
		return zero, 0, err
	}
	item, err := c.decode(entry)
	if err != nil {
		return zero, 0, err
	}
	return item, entry.Version, nil
}

// Replace writes item only if the stored version still equals version.
func (c *Collection[T]) Replace(ctx context.Context, item T, version int64) (int64, error) {
	if version <= 0 {
		return 0, fmt.Errorf("replace %s: version must be positive", c.namespace)
	}
	if err := c.ensureSeeded(ctx); err != nil {
		return 0, err
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", c.namespace, err)
	}
	entry, err := c.store.Put(ctx, c.namespace, c.id(item), raw, version)
	if err != nil {
		return 0, err
	}
	return entry.Version, nil
}

// Delete removes id only if the stored version still equals version.
func (c *Collection[T]) Delete(ctx context.Context, id string, version int64) error {
	if version <= 0 {
		return fmt.Errorf("delete %s: version must be positive", c.namespace)
	}
	if err := c.ensureSeeded(ctx); err != nil {
		return err
	}
	return c.store.Delete(ctx, c.namespace, id, version)
}

func (c *Collection[T]) decode(entry Entry) (T, error) {
	var item T
	if err := json.Unmarshal(entry.Value, &item); err != nil {
		return item, fmt.Errorf("decode %s/%s: %w", c.namespace, entry.Key, err)
	}
	return item, nil
}

// AddUnique adds the item built for attempt 0, 1, ... until its id is free.
// Used with time-derived ids that can collide within the same millisecond.
func (c *Collection[T]) AddUnique(ctx context.Context, build func(attempt int) T) (T, error) {
	var item T
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		item = build(attempt)
		_, err := c.Add(ctx, item)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, ErrAlreadyExists) {
			return item, err
		}
	}
	return item, ErrAlreadyExists
}
