package kv

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisSeqKey = "zp:_seq"

// Redis keeps one hash per namespace. Each field holds a JSON envelope with
// the entry metadata next to the value.
type Redis struct {
	client *redis.Client
}

type redisEnvelope struct {
	Version int64  `json:"v"`
	Seq     int64  `json:"s"`
	Updated int64  `json:"t"`
	Data    []byte `json:"d"`
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client}, nil
}

func redisKey(namespace string) string {
	return "zp:" + namespace
}

func (r *Redis) Get(ctx context.Context, namespace, key string) (Entry, error) {
	raw, err := r.client.HGet(ctx, redisKey(namespace), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, unavailable("get", err)
	}
	entry, err := decodeRedisEntry(key, raw)
	if err != nil {
		return Entry{}, unavailable("get", err)
	}
	return entry, nil
}

func (r *Redis) List(ctx context.Context, namespace string) ([]Entry, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(namespace)).Result()
	if err != nil {
		return nil, unavailable("list", err)
	}
	entries := make([]Entry, 0, len(fields))
	for key, raw := range fields {
		entry, err := decodeRedisEntry(key, []byte(raw))
		if err != nil {
			return nil, unavailable("list", err)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

func (r *Redis) Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error) {
	hash := redisKey(namespace)
	var next Entry

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, exists, err := r.readTx(ctx, tx, hash, key)
		if err != nil {
			return err
		}
		if err := checkVersion(current, exists, expected); err != nil {
			return err
		}

		next = Entry{Key: key, Version: 1, Value: value, UpdatedAt: time.Now().UTC()}
		if exists {
			next.Version = current.Version + 1
			next.Seq = current.Seq
		} else {
			seq, err := tx.Incr(ctx, redisSeqKey).Result()
			if err != nil {
				return err
			}
			next.Seq = seq
		}
		raw, err := json.Marshal(redisEnvelope{
			Version: next.Version,
			Seq:     next.Seq,
			Updated: next.UpdatedAt.UnixNano(),
			Data:    value,
		})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hash, key, raw)
			return nil
		})
		return err
	}, hash)

	if err != nil {
		return Entry{}, mapRedisError("put", err)
	}
	return next, nil
}

func (r *Redis) Delete(ctx context.Context, namespace, key string, expected int64) error {
	hash := redisKey(namespace)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, exists, err := r.readTx(ctx, tx, hash, key)
		if err != nil {
			return err
		}
		if !exists && expected == Any {
			return nil
		}
		if err := checkVersion(current, exists, expected); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, hash, key)
			return nil
		})
		return err
	}, hash)
	return mapRedisError("delete", err)
}

func (r *Redis) readTx(ctx context.Context, tx *redis.Tx, hash, key string) (Entry, bool, error) {
	raw, err := tx.HGet(ctx, hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	entry, err := decodeRedisEntry(key, raw)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func decodeRedisEntry(key string, raw []byte) (Entry, error) {
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Entry{}, err
	}
	return Entry{
		Key:       key,
		Version:   env.Version,
		Seq:       env.Seq,
		Value:     env.Data,
		UpdatedAt: time.Unix(0, env.Updated).UTC(),
	}, nil
}

// mapRedisError keeps CAS sentinels intact. A watched key changing under us
// is reported as a version conflict.
func mapRedisError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsSentinel(err):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return ErrVersionConflict
	default:
		return unavailable(op, err)
	}
}
