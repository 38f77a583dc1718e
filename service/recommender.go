// Package service 提供推荐协调器：按配置模式持有一个或多个引擎，
// 负责训练、查询扇出、等权合并与结果组装。
package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/engine"
	"github.com/recbox/recbox/filter"
	"github.com/recbox/recbox/pipeline"
	"github.com/recbox/recbox/rerank"
)

// 推荐模式。hybrid 同时持有两个引擎并等权合并输出。
const (
	ModeCollaborative = "collaborative"
	ModeContentBased  = "content-based"
	ModeHybrid        = "hybrid"
)

// DefaultLimit 是未指定 limit 时的候选数量。
const DefaultLimit = 10

// overfetchFactor：向每个引擎多取一倍候选，补偿排除过滤与合并损耗。
const overfetchFactor = 2

// Options 是协调器的构造配置。
type Options struct {
	// Mode 取 ModeCollaborative / ModeContentBased / ModeHybrid，默认 collaborative。
	Mode string

	// Collaborative 透传给协同引擎的配置（mode 含 collaborative 时生效）。
	Collaborative engine.CollaborativeConfig

	// Filters 是合并之后、截断之前执行的候选过滤器（黑名单、表达式等）。
	Filters []filter.Filter
}

// Recommender 是推荐协调器。
//
// 数据单向流动：外部集合 → 协调器 → 引擎（训练）→ 协调器（查询）→ 排序输出。
// 引擎生命周期由协调器独占；构造时立即做一次全量训练，
// 此后只能通过 Refresh 整体重训来吸收新数据。
type Recommender struct {
	users   core.UserStore
	items   core.ItemStore
	ratings core.RatingStore

	mode    string
	engines []core.Engine
	filters []filter.Filter
	logger  zerolog.Logger
}

// NewRecommender 按配置模式实例化引擎，并立即用三个集合的当前数据完成
// 首次全量训练。任一集合拉取失败或训练失败都直接返回错误：
// 半训练的引擎会产出误导性的推荐，不允许带病服务。
func NewRecommender(
	ctx context.Context,
	users core.UserStore,
	items core.ItemStore,
	ratings core.RatingStore,
	opts Options,
	logger zerolog.Logger,
) (*Recommender, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeCollaborative
	}

	var engines []core.Engine
	switch mode {
	case ModeCollaborative:
		engines = append(engines, engine.NewCollaborativeEngine(opts.Collaborative, logger))
	case ModeContentBased:
		engines = append(engines, engine.NewContentEngine(logger))
	case ModeHybrid:
		engines = append(engines,
			engine.NewCollaborativeEngine(opts.Collaborative, logger),
			engine.NewContentEngine(logger),
		)
	default:
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			fmt.Sprintf("unknown recommender mode: %q", mode))
	}

	return newRecommender(ctx, users, items, ratings, mode, engines, opts.Filters, logger)
}

// NewRecommenderWithEngines 用调用方自备的引擎组合构造协调器，
// 供扩展自定义引擎或测试替身使用；同样立即触发首次全量训练。
func NewRecommenderWithEngines(
	ctx context.Context,
	users core.UserStore,
	items core.ItemStore,
	ratings core.RatingStore,
	engines []core.Engine,
	filters []filter.Filter,
	logger zerolog.Logger,
) (*Recommender, error) {
	if len(engines) == 0 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"at least one engine is required")
	}
	return newRecommender(ctx, users, items, ratings, "custom", engines, filters, logger)
}

func newRecommender(
	ctx context.Context,
	users core.UserStore,
	items core.ItemStore,
	ratings core.RatingStore,
	mode string,
	engines []core.Engine,
	filters []filter.Filter,
	logger zerolog.Logger,
) (*Recommender, error) {
	r := &Recommender{
		users:   users,
		items:   items,
		ratings: ratings,
		mode:    mode,
		engines: engines,
		filters: filters,
		logger:  logger.With().Str("component", "recommender").Str("mode", mode).Logger(),
	}
	if err := r.train(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// train 从三个外部集合拉取全量数据并重训所有引擎。
// 上游失败不在本层吞掉，直接向调用方传播。
func (r *Recommender) train(ctx context.Context) error {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	items, err := r.items.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	ratings, err := r.ratings.ListRatings(ctx)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}

	dataset := &core.Dataset{Users: users, Items: items, Ratings: ratings}
	for _, e := range r.engines {
		r.logger.Debug().Str("engine", e.Name()).Msg("training engine")
		if err := e.Train(ctx, dataset); err != nil {
			return fmt.Errorf("train %s: %w", e.Name(), err)
		}
	}

	r.logger.Info().
		Int("users", len(users)).
		Int("items", len(items)).
		Int("ratings", len(ratings)).
		Msg("engines trained")
	return nil
}

// Refresh 重新拉取三个集合并从零重训所有引擎。
// 这是吸收新数据的唯一途径，没有增量更新路径。
func (r *Recommender) Refresh(ctx context.Context) error {
	r.logger.Info().Msg("refreshing recommendation models")
	return r.train(ctx)
}

// Recommend 为用户产出最终推荐列表。
//
// 流程：构建已评分排除集（excludeRated 时）→ 向每个引擎取 2×limit 候选
// （引擎训练后只读，扇出并发查询）→ 以 1/引擎数 等权合并，同一物品的
// 多引擎贡献相加 → 过滤 + Top-N 截断 → 按 ID 回查物品补全展示信息，
// 查不到的（训练后被删除）静默丢弃。
func (r *Recommender) Recommend(
	ctx context.Context,
	userID int64,
	limit int,
	excludeRated bool,
) ([]core.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	r.logger.Debug().Int64("user_id", userID).Int("limit", limit).Msg("getting recommendations")

	ratedItems := make(map[int64]struct{})
	if excludeRated {
		userRatings, err := r.ratings.RatingsByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load user ratings: %w", err)
		}
		for _, rt := range userRatings {
			if rt != nil {
				ratedItems[rt.ItemID] = struct{}{}
			}
		}
	}

	results := make([][]core.ScoredItem, len(r.engines))
	eg, qctx := errgroup.WithContext(ctx)
	for i, e := range r.engines {
		i, e := i, e
		eg.Go(func() error {
			items, err := e.RecommendForUser(qctx, userID, limit*overfetchFactor)
			if err != nil {
				return fmt.Errorf("recommend %s: %w", e.Name(), err)
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 等权合并：每个引擎权重 1/n，同一物品的贡献相加（不再取平均）；
	// 排除集内的物品在进入合并前逐引擎剔除。
	weight := 1.0 / float64(len(r.engines))
	merged := make(map[int64]float64)
	for _, items := range results {
		for _, it := range items {
			if _, rated := ratedItems[it.ItemID]; rated {
				continue
			}
			merged[it.ItemID] += it.Score * weight
		}
	}

	candidates := sortByScore(merged)

	post := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&filter.FilterNode{Filters: r.filters},
		&rerank.TopNNode{N: limit},
	}}
	candidates, err := post.Run(ctx, &core.QueryContext{UserID: userID, Limit: limit}, candidates)
	if err != nil {
		return nil, fmt.Errorf("postprocess: %w", err)
	}

	out := make([]core.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		item, err := r.items.GetItem(ctx, c.ItemID)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("resolve item %d: %w", c.ItemID, err)
		}
		out = append(out, core.Recommendation{
			ItemID:     item.ID,
			Name:       item.Name,
			Score:      math.Round(c.Score*1000) / 1000,
			Categories: item.Categories,
		})
	}

	r.logger.Debug().Int64("user_id", userID).Int("count", len(out)).Msg("returning recommendations")
	return out, nil
}

// Mode 返回协调器的工作模式。
func (r *Recommender) Mode() string { return r.mode }

// Engines 返回协调器持有的引擎（只读用途，例如解释接口的查找）。
func (r *Recommender) Engines() []core.Engine { return r.engines }

// sortByScore 把合并分数表转成按分数降序的候选列表。
// 先按 itemID 升序展开，再做稳定排序，保证同分时顺序确定。
func sortByScore(scores map[int64]float64) []core.ScoredItem {
	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]core.ScoredItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.ScoredItem{ItemID: id, Score: scores[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
