package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
)

// VectorStore is the key/value backend of the embedding cache.
type VectorStore interface {
	// Get returns one entry per key; a nil entry is a miss.
	Get(ctx context.Context, keys []string) ([][]float32, error)
	Set(ctx context.Context, entries map[string][]float32, ttl time.Duration) error
}

// Cached memoizes an inner provider by provider name and text digest.
// Store failures are logged and bypassed; they never change the vectors returned.
type Cached struct {
	inner    Provider
	store    VectorStore
	ttl      time.Duration
	logger   *zap.Logger
	recorder *metrics.Recorder
}

var (
	_ Provider     = (*Cached)(nil)
	_ QueryEncoder = (*Cached)(nil)
)

func NewCached(inner Provider, store VectorStore, ttl time.Duration, logger *zap.Logger, recorder *metrics.Recorder) *Cached {
	return &Cached{inner: inner, store: store, ttl: ttl, logger: logging.OrNop(logger), recorder: recorder}
}

func (c *Cached) Name() string   { return c.inner.Name() }
func (c *Cached) Dimension() int { return c.inner.Dimension() }

func (c *Cached) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return c.encode(ctx, c.inner.Name(), texts, c.inner.Encode)
}

// EncodeQueries caches query vectors apart from passage vectors.
func (c *Cached) EncodeQueries(ctx context.Context, queries []string) ([][]float32, error) {
	return c.encode(ctx, c.inner.Name()+":query", queries, func(ctx context.Context, q []string) ([][]float32, error) {
		return EncodeQueries(ctx, c.inner, q)
	})
}

func (c *Cached) encode(ctx context.Context, namespace string, texts []string, encode func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(namespace, t)
	}

	out, err := c.store.Get(ctx, keys)
	if err != nil || len(out) != len(texts) {
		if err != nil {
			c.logger.Warn("embedding cache read failed", zap.Error(err))
		}
		out = make([][]float32, len(texts))
	}

	var missIdx []int
	var missTexts []string
	for i, v := range out {
		c.recorder.CacheLookup(v != nil)
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := encode(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	entries := make(map[string][]float32, len(fresh))
	for j, i := range missIdx {
		out[i] = fresh[j]
		entries[keys[i]] = fresh[j]
	}
	if err := c.store.Set(ctx, entries, c.ttl); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return out, nil
}

func cacheKey(provider, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "docintel:emb:" + provider + ":" + hex.EncodeToString(sum[:])
}

// RedisStore keeps vectors as little-endian float32 blobs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to url (redis://...) and pings it.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, keys []string) ([][]float32, error) {
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make([][]float32, len(keys))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[i] = decodeVector([]byte(str))
		}
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, entries map[string][]float32, ttl time.Duration) error {
	pipe := s.client.Pipeline()
	for k, v := range entries {
		pipe.Set(ctx, k, encodeVector(v), ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
