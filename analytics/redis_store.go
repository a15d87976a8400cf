package analytics

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces question events in Redis.
const KeyPrefix = "mshp:question:"

const scanBatch = 200

var _ Store = (*RedisStore)(nil)

// RedisStore writes one JSON value per event under a time-ordered key and
// lets Redis expire it after the retention window.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
	logger    *zap.Logger
}

// RedisOptions builds client options from either a redis:// URL or an
// Upstash-style https:// REST endpoint plus token.
func RedisOptions(rawURL, token string) (*redis.Options, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	switch u.Scheme {
	case "redis", "rediss":
		opts, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if token != "" {
			opts.Password = token
		}
		return opts, nil
	case "http", "https":
		// Upstash serves the Redis protocol on the REST host with TLS.
		return &redis.Options{
			Addr:      u.Hostname() + ":6379",
			Username:  "default",
			Password:  token,
			TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported redis url scheme %q", u.Scheme)
	}
}

func NewRedisStore(ctx context.Context, opts *redis.Options, retention time.Duration, logger *zap.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStoreFromClient(rdb, retention, logger), nil
}

func NewRedisStoreFromClient(rdb *redis.Client, retention time.Duration, logger *zap.Logger) *RedisStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{rdb: rdb, retention: retention, logger: logger}
}

func eventKey(e Event) string {
	return fmt.Sprintf("%s%d:%s", KeyPrefix, e.Timestamp.UnixMilli(), e.ID)
}

// keyTime extracts the recording time encoded in an event key.
func keyTime(key string) (time.Time, bool) {
	rest := strings.TrimPrefix(key, KeyPrefix)
	millis, _, ok := strings.Cut(rest, ":")
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *RedisStore) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal question event: %w", err)
	}
	if err := s.rdb.Set(ctx, eventKey(event), payload, s.retention).Err(); err != nil {
		return fmt.Errorf("store question event: %w", err)
	}
	return nil
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, KeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan question keys: %w", err)
	}
	return keys, nil
}

func (s *RedisStore) List(ctx context.Context, filter ListFilter) ([]Event, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		batch := keys[start:min(start+scanBatch, len(keys))]
		values, err := s.rdb.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("load question events: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				// Expired between SCAN and MGET.
				continue
			}
			var e Event
			if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Question == "" {
				s.logger.Warn("Skipping unreadable question event", zap.String("key", batch[i]), zap.Error(err))
				continue
			}
			if filter.matches(e) {
				events = append(events, e)
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}

func (s *RedisStore) deleteKeys(ctx context.Context, keys []string) (int64, error) {
	var deleted int64
	for start := 0; start < len(keys); start += scanBatch {
		n, err := s.rdb.Del(ctx, keys[start:min(start+scanBatch, len(keys))]...).Result()
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("delete question events: %w", err)
		}
	}
	return deleted, nil
}

func (s *RedisStore) Clear(ctx context.Context) (int64, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	return s.deleteKeys(ctx, keys)
}

// PurgeExpired is mostly a no-op since keys carry a TTL, but it also catches
// events written before the retention window was shortened.
func (s *RedisStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	var stale []string
	for _, k := range keys {
		if ts, ok := keyTime(k); ok && ts.Before(before) {
			stale = append(stale, k)
		}
	}
	return s.deleteKeys(ctx, stale)
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
