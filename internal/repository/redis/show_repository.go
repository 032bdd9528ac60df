package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type ShowRepository interface {
	// Create stores show unless a record with the same key exists.
	Create(ctx context.Context, show *models.ShowRecord) (bool, error)
	Get(ctx context.Context, key string) (*models.ShowRecord, error)
	// Transition stores show only if the stored status is still from.
	Transition(ctx context.Context, show *models.ShowRecord, from models.ShowStatus) (bool, error)
	// AcquireOnce reports whether this caller is the first to claim key
	// within ttl.
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release gives up a claim taken by AcquireOnce.
	Release(ctx context.Context, key string) error
}

type redisShowRepository struct {
	cli *redis.Client
	ttl time.Duration
	l   logger.Logger
}

const defaultShowTTL = 7 * 24 * time.Hour

func NewRedisShowRepository(cli *redis.Client, ttl time.Duration, l logger.Logger) ShowRepository {
	if ttl <= 0 {
		ttl = defaultShowTTL
	}
	return &redisShowRepository{
		cli: cli,
		ttl: ttl,
		l:   l,
	}
}

var createShowScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end
	redis.call('HSET', KEYS[1], 'status', ARGV[1], 'data', ARGV[2])
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	return 1
`)

var transitionShowScript = redis.NewScript(`
	local current = redis.call('HGET', KEYS[1], 'status')
	if not current then
		return -1
	end
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('HSET', KEYS[1], 'status', ARGV[2], 'data', ARGV[3])
	return 1
`)

func (r *redisShowRepository) Create(ctx context.Context, show *models.ShowRecord) (bool, error) {
	data, err := json.Marshal(show)
	if err != nil {
		return false, fmt.Errorf("failed to marshal show: %w", err)
	}

	created, err := createShowScript.Run(ctx, r.cli, []string{r.showKey(show.Key())},
		string(show.Status), data, r.ttl.Milliseconds()).Int()
	if err != nil {
		r.l.Errorf(ctx, "redisShowRepository.Create: %v", err)
		return false, err
	}

	return created == 1, nil
}

func (r *redisShowRepository) Get(ctx context.Context, key string) (*models.ShowRecord, error) {
	data, err := r.cli.HGet(ctx, r.showKey(key), "data").Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrShowNotFound
		}
		r.l.Errorf(ctx, "redisShowRepository.Get: %v", err)
		return nil, err
	}

	var show models.ShowRecord
	if err := json.Unmarshal(data, &show); err != nil {
		r.l.Errorf(ctx, "redisShowRepository.Get: %v", err)
		return nil, err
	}

	return &show, nil
}

func (r *redisShowRepository) Transition(ctx context.Context, show *models.ShowRecord, from models.ShowStatus) (bool, error) {
	if !models.CanTransition(from, show.Status) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, show.Status)
	}

	data, err := json.Marshal(show)
	if err != nil {
		return false, fmt.Errorf("failed to marshal show: %w", err)
	}

	res, err := transitionShowScript.Run(ctx, r.cli, []string{r.showKey(show.Key())},
		string(from), string(show.Status), data).Int()
	if err != nil {
		r.l.Errorf(ctx, "redisShowRepository.Transition: %v", err)
		return false, err
	}

	switch res {
	case -1:
		return false, ErrShowNotFound
	case 0:
		return false, nil
	}
	return true, nil
}

func (r *redisShowRepository) AcquireOnce(ctx context.Context, k string, ttl time.Duration) (bool, error) {
	ok, err := r.cli.SetNX(ctx, key("dedupe", k), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisShowRepository.AcquireOnce: %v", err)
		return false, err
	}
	return ok, nil
}

func (r *redisShowRepository) Release(ctx context.Context, k string) error {
	if err := r.cli.Del(ctx, key("dedupe", k)).Err(); err != nil {
		r.l.Errorf(ctx, "redisShowRepository.Release: %v", err)
		return err
	}
	return nil
}

func (r *redisShowRepository) showKey(k string) string {
	return key("show", k)
}
