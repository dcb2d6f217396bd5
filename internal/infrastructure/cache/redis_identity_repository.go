package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// RedisIdentityRepository implements the identity cross-reference store on
// Redis. Each entity family holds a membership set of ERP ids, one JSON
// record per id, and a reverse hash from storefront id to ERP id:
//
//	{prefix}:entity:{family}          SET of erp ids
//	{prefix}:entity:{family}:{id}     JSON identity record
//	{prefix}:entity:{family}:by-local HASH local id -> erp id
//
// Batch writes go through a transactional pipeline so a reader never sees a
// set member without its record.
type RedisIdentityRepository struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdentityRepository connects to Redis and verifies the connection.
func NewRedisIdentityRepository(cfg RedisConfig, prefix string) (*RedisIdentityRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}

	return NewRedisIdentityRepositoryWithClient(client, prefix), nil
}

// NewRedisIdentityRepositoryWithClient wraps an existing client. Useful for
// sharing one client across components.
func NewRedisIdentityRepositoryWithClient(client *redis.Client, prefix string) *RedisIdentityRepository {
	if prefix == "" {
		prefix = "syncbridge"
	}
	return &RedisIdentityRepository{client: client, prefix: prefix}
}

func (r *RedisIdentityRepository) setKey(family integration.EntityFamily) string {
	return fmt.Sprintf("%s:entity:%s", r.prefix, family)
}

func (r *RedisIdentityRepository) recordKey(family integration.EntityFamily, erpID int64) string {
	return fmt.Sprintf("%s:entity:%s:%d", r.prefix, family, erpID)
}

func (r *RedisIdentityRepository) localKey(family integration.EntityFamily) string {
	return fmt.Sprintf("%s:entity:%s:by-local", r.prefix, family)
}

func (r *RedisIdentityRepository) lastSyncKey(family integration.EntityFamily) string {
	return fmt.Sprintf("%s:last-sync:%s", r.prefix, family)
}

// Get returns the record for an ERP id.
func (r *RedisIdentityRepository) Get(ctx context.Context, family integration.EntityFamily, erpID int64) (*integration.IdentityRecord, error) {
	data, err := r.client.Get(ctx, r.recordKey(family, erpID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, integration.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}

	var record integration.IdentityRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("identity record for %s/%d is corrupt: %w", family, erpID, err)
	}
	return &record, nil
}

// GetByLocal resolves a storefront id through the reverse hash.
func (r *RedisIdentityRepository) GetByLocal(ctx context.Context, family integration.EntityFamily, localID string) (*integration.IdentityRecord, error) {
	raw, err := r.client.HGet(ctx, r.localKey(family), localID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, integration.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}

	erpID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("reverse index for %s/%s is corrupt: %w", family, localID, err)
	}
	return r.Get(ctx, family, erpID)
}

// GetAll enumerates the family's membership set.
func (r *RedisIdentityRepository) GetAll(ctx context.Context, family integration.EntityFamily) ([]int64, error) {
	members, err := r.client.SMembers(ctx, r.setKey(family)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("membership set for %s holds non-numeric id %q", family, m)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Insert upserts a single record.
func (r *RedisIdentityRepository) Insert(ctx context.Context, family integration.EntityFamily, record integration.IdentityRecord) error {
	return r.InsertMany(ctx, family, []integration.IdentityRecord{record})
}

// InsertMany upserts a batch in one transactional round trip.
func (r *RedisIdentityRepository) InsertMany(ctx context.Context, family integration.EntityFamily, records []integration.IdentityRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal identity record %s/%d: %w", family, record.ErpID, err)
		}
		pipe.SAdd(ctx, r.setKey(family), record.ErpID)
		pipe.Set(ctx, r.recordKey(family, record.ErpID), data, 0)
		if record.LocalID != "" {
			pipe.HSet(ctx, r.localKey(family), record.LocalID, record.ErpID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}
	return nil
}

// Remove invalidates the link for an ERP id. The record is read first so the
// reverse index entry can be dropped alongside it.
func (r *RedisIdentityRepository) Remove(ctx context.Context, family integration.EntityFamily, erpID int64) error {
	record, err := r.Get(ctx, family, erpID)
	if err != nil && !errors.Is(err, integration.ErrIdentityNotFound) {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, r.setKey(family), erpID)
	pipe.Del(ctx, r.recordKey(family, erpID))
	if record != nil && record.LocalID != "" {
		pipe.HDel(ctx, r.localKey(family), record.LocalID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}
	return nil
}

// Length returns the membership set cardinality.
func (r *RedisIdentityRepository) Length(ctx context.Context, family integration.EntityFamily) (int64, error) {
	n, err := r.client.SCard(ctx, r.setKey(family)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}
	return n, nil
}

// Diff returns the candidates not yet in the family's set: candidates are
// written into a scratch set, diffed against the reference set, and the
// scratch set is discarded.
func (r *RedisIdentityRepository) Diff(ctx context.Context, family integration.EntityFamily, candidates []int64) ([]int64, error) {
	return r.diff(ctx, candidates, func(scratch string) *redis.StringSliceCmd {
		return r.client.SDiff(ctx, scratch, r.setKey(family))
	})
}

// Stale returns the set members absent from current, i.e. links whose ERP
// counterpart vanished.
func (r *RedisIdentityRepository) Stale(ctx context.Context, family integration.EntityFamily, current []int64) ([]int64, error) {
	return r.diff(ctx, current, func(scratch string) *redis.StringSliceCmd {
		return r.client.SDiff(ctx, r.setKey(family), scratch)
	})
}

func (r *RedisIdentityRepository) diff(ctx context.Context, scratchIDs []int64, op func(scratch string) *redis.StringSliceCmd) ([]int64, error) {
	scratch := fmt.Sprintf("%s:scratch:%s", r.prefix, uuid.NewString())

	if len(scratchIDs) > 0 {
		members := make([]any, len(scratchIDs))
		for i, id := range scratchIDs {
			members[i] = id
		}
		if err := r.client.SAdd(ctx, scratch, members...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
		}
		defer r.client.Del(context.WithoutCancel(ctx), scratch)
	}

	raw, err := op(scratch).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}

	ids := make([]int64, 0, len(raw))
	for _, m := range raw {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("scratch diff produced non-numeric id %q", m)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetLastSync returns the family's last successful sync time.
func (r *RedisIdentityRepository) GetLastSync(ctx context.Context, family integration.EntityFamily) (*time.Time, error) {
	raw, err := r.client.Get(ctx, r.lastSyncKey(family)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("last-sync timestamp for %s is corrupt: %w", family, err)
	}
	return &t, nil
}

// SetLastSync records the family's last successful sync time.
func (r *RedisIdentityRepository) SetLastSync(ctx context.Context, family integration.EntityFamily, t time.Time) error {
	if err := r.client.Set(ctx, r.lastSyncKey(family), t.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrIdentityStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (r *RedisIdentityRepository) Close() error {
	return r.client.Close()
}

// Ensure RedisIdentityRepository implements IdentityRepository
var _ integration.IdentityRepository = (*RedisIdentityRepository)(nil)
