package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

// JobRepo stores each job as a JSON value that expires after ttl of inactivity.
type JobRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewJobRepo(client RedisClient, ttl time.Duration) *JobRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobRepo{client: client, ttl: ttl}
}

func jobKey(id string) string { return "job:" + id }

func (r *JobRepo) CreateIfAbsent(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, domain.ErrInvalidArgument
	}
	data, err := json.Marshal(model.NewJob(id))
	if err != nil {
		return false, err
	}
	ok, err := r.client.SetNX(ctx, jobKey(id), data, r.ttl)
	if err != nil {
		return false, fmt.Errorf("create job: %w", err)
	}
	return ok, nil
}

func (r *JobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	val, err := r.client.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	var j model.Job
	if err := json.Unmarshal([]byte(val), &j); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &j, nil
}

func (r *JobRepo) Update(ctx context.Context, id string, status model.JobStatus, result string) error {
	data, err := json.Marshal(model.Job{ID: id, Status: status, Result: result, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, jobKey(id), data, r.ttl); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// -1 missing, 0 not failed, 1 re-armed
var luaRearm = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return -1
end
local j = cjson.decode(v)
if j["status"] ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1`)

func (r *JobRepo) Rearm(ctx context.Context, id string) (bool, error) {
	data, err := json.Marshal(model.NewJob(id))
	if err != nil {
		return false, err
	}
	res, err := r.client.RunScript(ctx, luaRearm, []string{jobKey(id)},
		string(model.JobStatusFailed), data, r.ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("rearm job: %w", err)
	}
	switch n, _ := res.(int64); n {
	case -1:
		return false, domain.ErrNotFound
	case 1:
		return true, nil
	default:
		return false, nil
	}
}
