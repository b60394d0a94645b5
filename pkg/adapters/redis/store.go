package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 16

// Store implements ports.TemplateStore using Redis.
//
// Layout under the prefix:
//
//	template:<id>     JSON document
//	lineage:<id>      hash of version -> template id
//	index             sorted set of template ids scored by creation time
//
// Multi-key invariants are enforced with WATCH/MULTI transactions.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "formwork:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client so a Locker or Publisher can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(id string) string {
	return s.prefix + "template:" + id
}

func (s *Store) lineageKey(lineageID string) string {
	return s.prefix + "lineage:" + lineageID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// watch runs fn in a WATCH transaction, retrying when a watched key changed.
func (s *Store) watch(ctx context.Context, fn func(*backend.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, backend.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis transaction kept failing: %w", backend.TxFailedErr)
}

// Create inserts the template and claims its version in the lineage.
func (s *Store) Create(ctx context.Context, t *domain.FormTemplate) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	key, lineageKey := s.key(t.ID), s.lineageKey(t.LineageID)
	version := strconv.Itoa(t.Version)

	return s.watch(ctx, func(tx *backend.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to check template: %w", err)
		}
		if exists > 0 {
			return domain.ErrTemplateExists
		}
		taken, err := tx.HExists(ctx, lineageKey, version).Result()
		if err != nil {
			return fmt.Errorf("failed to check lineage: %w", err)
		}
		if taken {
			return domain.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.HSet(ctx, lineageKey, version, t.ID)
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{
				Score:  float64(t.CreatedAt.Unix()),
				Member: t.ID,
			})
			return nil
		})
		return err
	}, key, lineageKey)
}

// Get retrieves the template from Redis.
func (s *Store) Get(ctx context.Context, id string) (*domain.FormTemplate, error) {
	return s.get(ctx, s.client, id)
}

func (s *Store) get(ctx context.Context, c backend.Cmdable, id string) (*domain.FormTemplate, error) {
	val, err := c.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return decode(val)
}

func decode(val string) (*domain.FormTemplate, error) {
	var t domain.FormTemplate
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}
	return &t, nil
}

// Update replaces the template when its revision matches the stored one.
func (s *Store) Update(ctx context.Context, t *domain.FormTemplate) error {
	key := s.key(t.ID)
	return s.watch(ctx, func(tx *backend.Tx) error {
		current, err := s.get(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		if current.Revision != t.Revision {
			return domain.ErrRevisionConflict
		}

		next := t.Clone()
		next.Revision++
		next.LineageID = current.LineageID
		next.Version = current.Version
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal template: %w", err)
		}
		if _, err := tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		}); err != nil {
			return err
		}
		t.Revision = next.Revision
		return nil
	}, key)
}

// ListLineage returns every version of a lineage ordered by version.
func (s *Store) ListLineage(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error) {
	ids, err := s.client.HVals(ctx, s.lineageKey(lineageID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read lineage: %w", err)
	}
	out, err := s.load(ctx, s.client, ids)
	if err != nil {
		return nil, err
	}
	ports.SortByVersion(out)
	return out, nil
}

// List scans the index and filters in memory.
func (s *Store) List(ctx context.Context, filter ports.Filter) ([]*domain.FormTemplate, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	all, err := s.load(ctx, s.client, ids)
	if err != nil {
		return nil, err
	}

	var out []*domain.FormTemplate
	for _, t := range all {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	ports.SortTemplates(out)
	return out, nil
}

func (s *Store) load(ctx context.Context, c backend.Cmdable, ids []string) ([]*domain.FormTemplate, error) {
	if len(ids) == 0 {
		return []*domain.FormTemplate{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	out := make([]*domain.FormTemplate, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // removed between index read and load
		}
		t, err := decode(str)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// SetActive rewrites the active flags of a lineage in one transaction.
func (s *Store) SetActive(ctx context.Context, lineageID, templateID string, at time.Time) error {
	lineageKey := s.lineageKey(lineageID)
	ids, err := s.client.HVals(ctx, lineageKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read lineage: %w", err)
	}
	keys := []string{lineageKey}
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}

	return s.watch(ctx, func(tx *backend.Tx) error {
		versions, err := s.load(ctx, tx, ids)
		if err != nil {
			return err
		}
		changed, err := ports.ApplyActive(versions, templateID, at)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		payloads := make(map[string][]byte, len(changed))
		for _, t := range changed {
			data, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("failed to marshal template: %w", err)
			}
			payloads[s.key(t.ID)] = data
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			for key, data := range payloads {
				pipe.Set(ctx, key, data, 0)
			}
			return nil
		})
		return err
	}, keys...)
}
