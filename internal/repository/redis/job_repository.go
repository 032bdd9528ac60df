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

type JobRepository interface {
	Schedule(ctx context.Context, job models.Job) error
	PopDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.Job, error)
	Ack(ctx context.Context, id string) error
	RequeueExpired(ctx context.Context, now time.Time) (int, error)
	Pending(ctx context.Context, limit int) ([]models.Job, error)
	Count(ctx context.Context) (int64, error)
	InFlight(ctx context.Context) (int64, error)
}

type redisJobRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisJobRepository(cli *redis.Client, l logger.Logger) JobRepository {
	return &redisJobRepository{
		cli: cli,
		l:   l,
	}
}

// KEYS: delayed, inflight, payload. ARGV: now ms, limit, lease deadline ms.
var popDueScript = redis.NewScript(`
	local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
	local out = {}

	for _, id in ipairs(ids) do
		redis.call('ZREM', KEYS[1], id)
		local payload = redis.call('HGET', KEYS[3], id)
		if payload then
			redis.call('ZADD', KEYS[2], ARGV[3], id)
			table.insert(out, payload)
		end
	end

	return out
`)

// KEYS: inflight, delayed. ARGV: now ms.
var requeueExpiredScript = redis.NewScript(`
	local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])

	for _, id in ipairs(ids) do
		redis.call('ZREM', KEYS[1], id)
		redis.call('ZADD', KEYS[2], ARGV[1], id)
	end

	return #ids
`)

func (r *redisJobRepository) Schedule(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := r.cli.TxPipeline()
	pipe.HSet(ctx, r.payloadKey(), job.ID, data)
	pipe.ZRem(ctx, r.inflightKey(), job.ID)
	pipe.ZAdd(ctx, r.delayedKey(), redis.Z{
		Score:  float64(job.FireAt.UnixMilli()),
		Member: job.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisJobRepository.Schedule: %v", err)
		return err
	}

	r.l.Debugf(ctx, "redisJobRepository.Schedule: %s %s at %s", job.Kind, job.DedupeKey, job.FireAt.Format(time.RFC3339))
	return nil
}

// PopDue moves up to limit jobs whose FireAt is at or before now onto the
// in-flight set, earliest first. Each stays leased until Ack or until
// RequeueExpired returns it after lease has passed.
func (r *redisJobRepository) PopDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.Job, error) {
	keys := []string{r.delayedKey(), r.inflightKey(), r.payloadKey()}
	res, err := popDueScript.Run(ctx, r.cli, keys, now.UnixMilli(), limit, now.Add(lease).UnixMilli()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisJobRepository.PopDue: %v", err)
		return nil, err
	}

	raw, _ := res.([]interface{})
	jobs := make([]models.Job, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var job models.Job
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			r.l.Warnf(ctx, "redisJobRepository.PopDue: dropping undecodable job: %v", err)
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// Ack forgets a job once its event is on the broker.
func (r *redisJobRepository) Ack(ctx context.Context, id string) error {
	pipe := r.cli.TxPipeline()
	pipe.ZRem(ctx, r.inflightKey(), id)
	pipe.HDel(ctx, r.payloadKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisJobRepository.Ack: %v", err)
		return err
	}
	return nil
}

// RequeueExpired puts every job whose lease ended at or before now back on
// the delayed set, due immediately.
func (r *redisJobRepository) RequeueExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := requeueExpiredScript.Run(ctx, r.cli, []string{r.inflightKey(), r.delayedKey()}, now.UnixMilli()).Int()
	if err != nil {
		r.l.Errorf(ctx, "redisJobRepository.RequeueExpired: %v", err)
		return 0, err
	}
	if n > 0 {
		r.l.Warnf(ctx, "redisJobRepository.RequeueExpired: %d leases expired", n)
	}
	return n, nil
}

func (r *redisJobRepository) Pending(ctx context.Context, limit int) ([]models.Job, error) {
	ids, err := r.cli.ZRange(ctx, r.delayedKey(), 0, int64(limit)-1).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisJobRepository.Pending: %v", err)
		return nil, err
	}

	jobs := make([]models.Job, 0, len(ids))
	if len(ids) == 0 {
		return jobs, nil
	}

	values, err := r.cli.HMGet(ctx, r.payloadKey(), ids...).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisJobRepository.Pending: %v", err)
		return nil, err
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var job models.Job
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (r *redisJobRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.cli.ZCard(ctx, r.delayedKey()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisJobRepository.Count: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *redisJobRepository) InFlight(ctx context.Context) (int64, error) {
	n, err := r.cli.ZCard(ctx, r.inflightKey()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisJobRepository.InFlight: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *redisJobRepository) delayedKey() string {
	return key("jobs", "delayed")
}

func (r *redisJobRepository) inflightKey() string {
	return key("jobs", "inflight")
}

func (r *redisJobRepository) payloadKey() string {
	return key("jobs", "payload")
}
