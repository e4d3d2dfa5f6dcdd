// Package mirror copies committed records to an external document store.
// The relational database stays authoritative; mirror failures are logged
// and never reach the caller.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"

	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Mirror backends
const (
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendHTTP  = "http"
)

// NewStore builds the configured document store. It returns nil when the
// mirror is disabled.
func NewStore(cfg config.MirrorConfig, client redis.UniversalClient) (interfaces.DocumentStore, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendRedis:
		if client == nil {
			return nil, errors.New("redis mirror backend needs a redis client")
		}
		return NewRedisStore(client, cfg.KeyPrefix), nil
	case BackendHTTP:
		if cfg.HTTPBaseURL == "" {
			return nil, errors.New("http mirror backend needs http_base_url")
		}
		return NewHTTPStore(cfg.HTTPBaseURL, cfg.HTTPToken, time.Duration(cfg.HTTPTimeout)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", cfg.Backend)
	}
}

// RedisStore keeps each document as a JSON string under prefix:collection:id
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed document store
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Key returns the Redis key of a document
func (s *RedisStore) Key(collection, id string) string {
	if s.prefix == "" {
		return collection + ":" + id
	}
	return s.prefix + ":" + collection + ":" + id
}

// Put stores doc, replacing any previous version
func (s *RedisStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := s.client.Set(ctx, s.Key(collection, id), doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key(collection, id), err)
	}
	return nil
}

// Get loads a document
func (s *RedisStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	doc, err := s.client.Get(ctx, s.Key(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("%s/%s not mirrored", collection, id))
		}
		return nil, fmt.Errorf("redis get %s: %w", s.Key(collection, id), err)
	}
	return doc, nil
}

// Name implements DocumentStore
func (s *RedisStore) Name() string { return BackendRedis }

// HTTPStore writes documents to a REST document service as PUT {base}/{collection}/{id}
type HTTPStore struct {
	client *resty.Client
}

// NewHTTPStore creates an HTTP-backed document store. Retries are left to the outbox.
func NewHTTPStore(baseURL, token string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPStore{client: client}
}

// Put uploads doc
func (s *HTTPStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"collection": collection, "id": id}).
		SetBody(doc).
		Put("/{collection}/{id}")
	if err != nil {
		return fmt.Errorf("document put %s/%s: %w", collection, id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("document put %s/%s: unexpected status %s", collection, id, resp.Status())
	}
	return nil
}

// Get downloads a document
func (s *HTTPStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"collection": collection, "id": id}).
		Get("/{collection}/{id}")
	if err != nil {
		return nil, fmt.Errorf("document get %s/%s: %w", collection, id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("%s/%s not mirrored", collection, id))
	}
	if resp.IsError() {
		return nil, fmt.Errorf("document get %s/%s: unexpected status %s", collection, id, resp.Status())
	}
	return resp.Body(), nil
}

// Name implements DocumentStore
func (s *HTTPStore) Name() string { return BackendHTTP }
