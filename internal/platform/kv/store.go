// Package kv is the persistence layer: a namespaced key-value store with
// per-entry version stamps, plus a typed collection facade on top of it.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Any disables the version check on Put and Delete.
const Any int64 = -1

var (
	ErrNotFound           = errors.New("kv: entry not found")
	ErrAlreadyExists      = errors.New("kv: entry already exists")
	ErrVersionConflict    = errors.New("kv: version conflict")
	ErrStorageUnavailable = errors.New("kv: storage unavailable")
)

// Entry is one stored value. Version starts at 1 and grows by one per write;
// Seq is the insertion order within the store and never changes on update.
type Entry struct {
	Key       string
	Version   int64
	Seq       int64
	Value     []byte
	UpdatedAt time.Time
}

// Store is implemented by every storage driver.
//
// Put and Delete are compare-and-swap operations: expected == Any writes
// unconditionally, expected == 0 requires the key to be absent and
// expected > 0 requires the stored version to match.
type Store interface {
	Get(ctx context.Context, namespace, key string) (Entry, error)
	List(ctx context.Context, namespace string) ([]Entry, error)
	Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error)
	Delete(ctx context.Context, namespace, key string, expected int64) error
	Ping(ctx context.Context) error
	Close() error
}

// checkVersion applies the CAS rules shared by all drivers.
func checkVersion(current Entry, exists bool, expected int64) error {
	switch {
	case expected == Any:
		return nil
	case expected == 0:
		if exists {
			return ErrAlreadyExists
		}
		return nil
	case !exists:
		return ErrNotFound
	case current.Version != expected:
		return ErrVersionConflict
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("kv %s: %w: %w", op, ErrStorageUnavailable, err)
}

// IsSentinel reports whether err is one of the package's CAS outcomes rather
// than a driver failure.
func IsSentinel(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrVersionConflict)
}
