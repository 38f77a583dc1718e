package core

import "context"

// 外部协作方的三个只读契约。持久化、校验都发生在这些实现里，
// 引擎侧只把它们当作三个有序平铺集合的提供者。

// UserStore 提供用户集合的读取。
type UserStore interface {
	// ListUsers 返回全量用户，按 ID 升序。
	ListUsers(ctx context.Context) ([]*User, error)

	// GetUser 按 ID 查找用户，不存在时返回 ErrStoreNotFound。
	GetUser(ctx context.Context, id int64) (*User, error)
}

// ItemStore 提供物品集合的读取。
// 协调器在结果组装阶段会按 ID 回查物品以补全展示信息。
type ItemStore interface {
	// ListItems 返回全量物品，按 ID 升序。
	ListItems(ctx context.Context) ([]*Item, error)

	// GetItem 按 ID 查找物品，不存在时返回 ErrStoreNotFound。
	GetItem(ctx context.Context, id int64) (*Item, error)
}

// RatingStore 提供评分集合的读取。
type RatingStore interface {
	// ListRatings 返回全量评分，按写入顺序。
	ListRatings(ctx context.Context) ([]*Rating, error)

	// RatingsByUser 返回某个用户的全部评分，用于构建已评分排除集。
	RatingsByUser(ctx context.Context, userID int64) ([]*Rating, error)
}
