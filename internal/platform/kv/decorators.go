package kv

import (
	"context"
	"fmt"
	"time"

	"zenpayroll/internal/platform/crypto"
	"zenpayroll/internal/platform/metrics"
)

// latencyStore delays every call, mimicking a remote store.
type latencyStore struct {
	Store
	delay time.Duration
}

func WithLatency(store Store, delay time.Duration) Store {
	if delay <= 0 {
		return store
	}
	return &latencyStore{Store: store, delay: delay}
}

// wait reports a cancelled context as ErrStorageUnavailable, still wrapping
// the context error.
func (s *latencyStore) wait(ctx context.Context, op string) error {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return unavailable(op, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (s *latencyStore) Get(ctx context.Context, namespace, key string) (Entry, error) {
	if err := s.wait(ctx, "get"); err != nil {
		return Entry{}, err
	}
	return s.Store.Get(ctx, namespace, key)
}

func (s *latencyStore) List(ctx context.Context, namespace string) ([]Entry, error) {
	if err := s.wait(ctx, "list"); err != nil {
		return nil, err
	}
	return s.Store.List(ctx, namespace)
}

func (s *latencyStore) Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error) {
	if err := s.wait(ctx, "put"); err != nil {
		return Entry{}, err
	}
	return s.Store.Put(ctx, namespace, key, value, expected)
}

func (s *latencyStore) Delete(ctx context.Context, namespace, key string, expected int64) error {
	if err := s.wait(ctx, "delete"); err != nil {
		return err
	}
	return s.Store.Delete(ctx, namespace, key, expected)
}

// encryptedStore seals values before they reach the driver.
type encryptedStore struct {
	Store
	crypto *crypto.Service
}

func WithEncryption(store Store, svc *crypto.Service) Store {
	if !svc.Configured() {
		return store
	}
	return &encryptedStore{Store: store, crypto: svc}
}

func (s *encryptedStore) open(entry Entry) (Entry, error) {
	plain, err := s.crypto.Decrypt(entry.Value)
	if err != nil {
		return Entry{}, fmt.Errorf("kv decrypt %s: %w: %w", entry.Key, ErrStorageUnavailable, err)
	}
	entry.Value = plain
	return entry, nil
}

func (s *encryptedStore) Get(ctx context.Context, namespace, key string) (Entry, error) {
	entry, err := s.Store.Get(ctx, namespace, key)
	if err != nil {
		return Entry{}, err
	}
	return s.open(entry)
}

func (s *encryptedStore) List(ctx context.Context, namespace string) ([]Entry, error) {
	entries, err := s.Store.List(ctx, namespace)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i], err = s.open(entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *encryptedStore) Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error) {
	sealed, err := s.crypto.Encrypt(value)
	if err != nil {
		return Entry{}, fmt.Errorf("kv encrypt %s: %w: %w", key, ErrStorageUnavailable, err)
	}
	entry, err := s.Store.Put(ctx, namespace, key, sealed, expected)
	if err != nil {
		return Entry{}, err
	}
	entry.Value = value
	return entry, nil
}

// metricsStore counts operations per namespace. CAS sentinels are outcomes,
// not failures.
type metricsStore struct {
	Store
	collector *metrics.Collector
}

func WithMetrics(store Store, collector *metrics.Collector) Store {
	if collector == nil {
		return store
	}
	return &metricsStore{Store: store, collector: collector}
}

func (s *metricsStore) record(namespace string, err error) {
	s.collector.RecordStorage(namespace, err != nil && !IsSentinel(err))
}

func (s *metricsStore) Get(ctx context.Context, namespace, key string) (Entry, error) {
	entry, err := s.Store.Get(ctx, namespace, key)
	s.record(namespace, err)
	return entry, err
}

func (s *metricsStore) List(ctx context.Context, namespace string) ([]Entry, error) {
	entries, err := s.Store.List(ctx, namespace)
	s.record(namespace, err)
	return entries, err
}

func (s *metricsStore) Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error) {
	entry, err := s.Store.Put(ctx, namespace, key, value, expected)
	s.record(namespace, err)
	return entry, err
}

func (s *metricsStore) Delete(ctx context.Context, namespace, key string, expected int64) error {
	err := s.Store.Delete(ctx, namespace, key, expected)
	s.record(namespace, err)
	return err
}
