// Package store 提供外部协作方三个读取契约的参考实现：
// 内存版（测试/开发/原型）与 Redis 版（进程外共享）。
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/recbox/recbox/core"
)

// MemoryStore 是内存实现，同时满足 UserStore / ItemStore / RatingStore。
// 进程重启后数据丢失；读写都持锁，可被多个调用方并发使用。
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]*core.User
	items   map[int64]*core.Item
	ratings []*core.Rating
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]*core.User),
		items: make(map[int64]*core.Item),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

// SaveUser 新增或覆盖一个用户。
func (m *MemoryStore) SaveUser(_ context.Context, u *core.User) error {
	if u == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil user")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

// SaveItem 新增或覆盖一个物品。
func (m *MemoryStore) SaveItem(_ context.Context, it *core.Item) error {
	if it == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil item")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.ID] = it
	return nil
}

// DeleteItem 删除一个物品。已训练的引擎不受影响；协调器在结果组装时
// 会静默丢弃已删除的物品。
func (m *MemoryStore) DeleteItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// SaveRating 追加一条评分。同一 (user, item) 不重复是上游契约，这里不去重。
func (m *MemoryStore) SaveRating(_ context.Context, r *core.Rating) error {
	if r == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil rating")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = append(m.ratings, r)
	return nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetUser(_ context.Context, id int64) (*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return u, nil
}

func (m *MemoryStore) ListItems(_ context.Context) ([]*core.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetItem(_ context.Context, id int64) (*core.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return it, nil
}

func (m *MemoryStore) ListRatings(_ context.Context) ([]*core.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Rating, len(m.ratings))
	copy(out, m.ratings)
	return out, nil
}

func (m *MemoryStore) RatingsByUser(_ context.Context, userID int64) ([]*core.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Rating, 0)
	for _, r := range m.ratings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

var (
	_ core.UserStore   = (*MemoryStore)(nil)
	_ core.ItemStore   = (*MemoryStore)(nil)
	_ core.RatingStore = (*MemoryStore)(nil)
)
