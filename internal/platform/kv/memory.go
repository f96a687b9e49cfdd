package kv

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	seq  int64
	data map[string]map[string]Entry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string]Entry{}, now: time.Now}
}

func (m *Memory) Get(ctx context.Context, namespace, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.data[namespace][key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (m *Memory) List(ctx context.Context, namespace string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.data[namespace]))
	for _, entry := range m.data[namespace] {
		entries = append(entries, cloneEntry(entry))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

func (m *Memory) Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[namespace]
	if !ok {
		bucket = map[string]Entry{}
		m.data[namespace] = bucket
	}
	current, exists := bucket[key]
	if err := checkVersion(current, exists, expected); err != nil {
		return Entry{}, err
	}

	next := Entry{Key: key, Version: 1, Value: append([]byte(nil), value...), UpdatedAt: m.now().UTC()}
	if exists {
		next.Version = current.Version + 1
		next.Seq = current.Seq
	} else {
		m.seq++
		next.Seq = m.seq
	}
	bucket[key] = next
	return cloneEntry(next), nil
}

func (m *Memory) Delete(ctx context.Context, namespace, key string, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.data[namespace][key]
	if !exists && expected == Any {
		return nil
	}
	if err := checkVersion(current, exists, expected); err != nil {
		return err
	}
	delete(m.data[namespace], key)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func cloneEntry(e Entry) Entry {
	e.Value = append([]byte(nil), e.Value...)
	return e
}
