// Package cache stores computed recommendations in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

const (
	generationKey  = "rec:gen"
	maxTxAttempts  = 5
	keyPrefix      = "rec"
	defaultTimeout = 5 * time.Second
)

// RedisStore keeps each user's recommendation rows in a hash keyed by row id,
// under the current generation: rec:{gen}:{userID}. Deleting everything bumps
// the generation, which is a single INCR, and abandons the old hashes to their
// TTL.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a user's hash survives its last write.
	TTL time.Duration
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(ctx context.Context, opts Options, log *logger.Logger) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: defaultTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(rdb, opts.TTL, log), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		log: log.Component("RedisRecommendationStore"),
	}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) generation(ctx context.Context) (int64, error) {
	gen, err := s.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func userKey(gen int64, userID string) string {
	return keyPrefix + ":" + strconv.FormatInt(gen, 10) + ":" + userID
}

func (s *RedisStore) userKey(ctx context.Context, userID string) (string, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return "", err
	}
	return userKey(gen, userID), nil
}

func (s *RedisStore) SaveRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	gen, err := s.generation(ctx)
	if err != nil {
		return err
	}

	byUser := make(map[string][]interface{})
	for _, rec := range recs {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode recommendation %s: %w", rec.ID, err)
		}
		byUser[rec.UserID] = append(byUser[rec.UserID], rec.ID, raw)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for userID, fields := range byUser {
			key := userKey(gen, userID)
			pipe.HSet(ctx, key, fields...)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store recommendations: %w", err)
	}
	return nil
}

func (s *RedisStore) RecommendationsSince(ctx context.Context, userID string, since time.Time) ([]models.Recommendation, error) {
	key, err := s.userKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	values, err := s.rdb.HVals(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recommendations for user %s: %w", userID, err)
	}

	out := make([]models.Recommendation, 0, len(values))
	for _, raw := range values {
		var rec models.Recommendation
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.log.Warn("Skipping undecodable cached recommendation", "user_id", userID, "error", err)
			continue
		}
		if rec.CreatedAt.After(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func setFlag(rec *models.Recommendation, flag models.Feedback) error {
	switch flag {
	case models.FeedbackShown:
		rec.Shown = true
	case models.FeedbackClicked:
		rec.Clicked = true
	case models.FeedbackOrdered:
		rec.Ordered = true
	default:
		return fmt.Errorf("unknown feedback flag %q", flag)
	}
	return nil
}

// updateRows runs pick against the user's decoded rows under WATCH and writes
// back whatever it returns. It retries when a concurrent writer touched the key.
func (s *RedisStore) updateRows(ctx context.Context, userID string, pick func(map[string]models.Recommendation) []models.Recommendation) (int, error) {
	key, err := s.userKey(ctx, userID)
	if err != nil {
		return 0, err
	}

	var updated int
	txf := func(tx *goredis.Tx) error {
		raw, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		rows := make(map[string]models.Recommendation, len(raw))
		for id, value := range raw {
			var rec models.Recommendation
			if err := json.Unmarshal([]byte(value), &rec); err == nil {
				rows[id] = rec
			}
		}

		changed := pick(rows)
		updated = len(changed)
		if updated == 0 {
			return nil
		}
		fields := make([]interface{}, 0, 2*len(changed))
		for _, rec := range changed {
			encoded, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			fields = append(fields, rec.ID, encoded)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, fields...)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update recommendations for user %s: %w", userID, err)
	}
	return updated, nil
}

func (s *RedisStore) FlagRecommendations(ctx context.Context, userID string, ids []string, flag models.Feedback) error {
	if len(ids) == 0 {
		return nil
	}
	if err := setFlag(&models.Recommendation{}, flag); err != nil {
		return err
	}
	_, err := s.updateRows(ctx, userID, func(rows map[string]models.Recommendation) []models.Recommendation {
		var changed []models.Recommendation
		for _, id := range ids {
			rec, ok := rows[id]
			if !ok {
				continue
			}
			_ = setFlag(&rec, flag)
			changed = append(changed, rec)
		}
		return changed
	})
	return err
}

func (s *RedisStore) FlagLatest(ctx context.Context, userID string, item models.ItemRef, flag models.Feedback) (bool, error) {
	if err := setFlag(&models.Recommendation{}, flag); err != nil {
		return false, err
	}
	n, err := s.updateRows(ctx, userID, func(rows map[string]models.Recommendation) []models.Recommendation {
		var latest *models.Recommendation
		for _, rec := range rows {
			if rec.Item != item {
				continue
			}
			if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
				rec := rec
				latest = &rec
			}
		}
		if latest == nil {
			return nil
		}
		_ = setFlag(latest, flag)
		return []models.Recommendation{*latest}
	})
	return n > 0, err
}

// DeleteAllRecommendations makes every stored row unreachable in one INCR.
func (s *RedisStore) DeleteAllRecommendations(ctx context.Context) error {
	gen, err := s.rdb.Incr(ctx, generationKey).Result()
	if err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	s.log.Info("Cache generation bumped", "generation", gen)
	return nil
}
