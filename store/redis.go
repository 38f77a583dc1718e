package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/recbox/recbox/core"
)

// Redis 键布局：
//   user:<id> / item:<id>      JSON 实体
//   users / items              ID 集合（用于全量列举）
//   ratings                    评分 JSON 列表（写入顺序）
//   ratings:user:<id>          按用户分桶的评分 JSON 列表
const (
	redisUserKeyPrefix       = "user:"
	redisItemKeyPrefix       = "item:"
	redisUserSetKey          = "users"
	redisItemSetKey          = "items"
	redisRatingListKey       = "ratings"
	redisUserRatingKeyPrefix = "ratings:user:"
)

// RedisStore 是 Redis 实现，同时满足 UserStore / ItemStore / RatingStore。
// 实体以 JSON 存储，多个进程可共享同一份集合数据。
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) SaveUser(ctx context.Context, u *core.User) error {
	if u == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil user")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user %d: %w", u.ID, err)
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, redisUserKeyPrefix+formatID(u.ID), data, 0)
	pipe.SAdd(ctx, redisUserSetKey, u.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) SaveItem(ctx context.Context, it *core.Item) error {
	if it == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil item")
	}
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshal item %d: %w", it.ID, err)
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, redisItemKeyPrefix+formatID(it.ID), data, 0)
	pipe.SAdd(ctx, redisItemSetKey, it.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) DeleteItem(ctx context.Context, id int64) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, redisItemKeyPrefix+formatID(id))
	pipe.SRem(ctx, redisItemSetKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) SaveRating(ctx context.Context, rt *core.Rating) error {
	if rt == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil rating")
	}
	data, err := json.Marshal(rt)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}
	pipe := r.client.Pipeline()
	pipe.RPush(ctx, redisRatingListKey, data)
	pipe.RPush(ctx, redisUserRatingKeyPrefix+formatID(rt.UserID), data)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) ListUsers(ctx context.Context) ([]*core.User, error) {
	ids, err := r.memberIDs(ctx, redisUserSetKey)
	if err != nil {
		return nil, err
	}
	out := make([]*core.User, 0, len(ids))
	for _, id := range ids {
		u, err := r.GetUser(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				continue // 集合与实体键不一致时跳过残留 ID
			}
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *RedisStore) GetUser(ctx context.Context, id int64) (*core.User, error) {
	data, err := r.client.Get(ctx, redisUserKeyPrefix+formatID(id)).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var u core.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user %d: %w", id, err)
	}
	return &u, nil
}

func (r *RedisStore) ListItems(ctx context.Context) ([]*core.Item, error) {
	ids, err := r.memberIDs(ctx, redisItemSetKey)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it, err := r.GetItem(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *RedisStore) GetItem(ctx context.Context, id int64) (*core.Item, error) {
	data, err := r.client.Get(ctx, redisItemKeyPrefix+formatID(id)).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var it core.Item
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("unmarshal item %d: %w", id, err)
	}
	return &it, nil
}

func (r *RedisStore) ListRatings(ctx context.Context) ([]*core.Rating, error) {
	return r.ratingList(ctx, redisRatingListKey)
}

func (r *RedisStore) RatingsByUser(ctx context.Context, userID int64) ([]*core.Rating, error) {
	return r.ratingList(ctx, redisUserRatingKeyPrefix+formatID(userID))
}

func (r *RedisStore) ratingList(ctx context.Context, key string) ([]*core.Rating, error) {
	rows, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*core.Rating, 0, len(rows))
	for _, row := range rows {
		var rt core.Rating
		if err := json.Unmarshal([]byte(row), &rt); err != nil {
			return nil, fmt.Errorf("unmarshal rating: %w", err)
		}
		out = append(out, &rt)
	}
	return out, nil
}

// memberIDs 读取 ID 集合并按数值升序返回，保证列举顺序稳定。
func (r *RedisStore) memberIDs(ctx context.Context, key string) ([]int64, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

var (
	_ core.UserStore   = (*RedisStore)(nil)
	_ core.ItemStore   = (*RedisStore)(nil)
	_ core.RatingStore = (*RedisStore)(nil)
)
