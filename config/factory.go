package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/engine"
	"github.com/recbox/recbox/filter"
	"github.com/recbox/recbox/pkg/conv"
	"github.com/recbox/recbox/service"
)

// Deps 是过滤器构建时可用的外部依赖。
type Deps struct {
	Ratings core.RatingStore
}

// FilterBuilder 根据配置构建一个过滤器。
type FilterBuilder func(cfg map[string]any, deps Deps) (filter.Filter, error)

var (
	filterBuilders   = make(map[string]FilterBuilder)
	filterBuildersMu sync.RWMutex
)

// RegisterFilter 注册一种过滤器的构建逻辑，供配置驱动装配使用。
func RegisterFilter(typeName string, builder FilterBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	filterBuildersMu.Lock()
	defer filterBuildersMu.Unlock()
	filterBuilders[typeName] = builder
}

// SupportedFilters 返回已注册的过滤器类型（排序），用于错误提示。
func SupportedFilters() []string {
	filterBuildersMu.RLock()
	defer filterBuildersMu.RUnlock()
	types := make([]string, 0, len(filterBuilders))
	for t := range filterBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func init() {
	RegisterFilter("blacklist", buildBlacklistFilter)
	RegisterFilter("expr", buildExprFilter)
	RegisterFilter("rated", buildRatedFilter)
}

func buildBlacklistFilter(cfg map[string]any, _ Deps) (filter.Filter, error) {
	ids := conv.SliceAnyToInt64(cfg["item_ids"])
	return filter.NewBlacklistFilter(ids), nil
}

func buildExprFilter(cfg map[string]any, _ Deps) (filter.Filter, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr filter: expression not found")
	}
	return filter.NewExprFilter(expr)
}

func buildRatedFilter(_ map[string]any, deps Deps) (filter.Filter, error) {
	if deps.Ratings == nil {
		return nil, fmt.Errorf("rated filter: rating store not provided")
	}
	return &filter.RatedFilter{Ratings: deps.Ratings}, nil
}

// BuildFilters 根据配置构建过滤器列表。
func BuildFilters(configs []FilterConfig, deps Deps) ([]filter.Filter, error) {
	filters := make([]filter.Filter, 0, len(configs))
	for _, fc := range configs {
		filterBuildersMu.RLock()
		builder, ok := filterBuilders[fc.Type]
		filterBuildersMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown filter type %q (supported: %v)", fc.Type, SupportedFilters())
		}
		f, err := builder(fc.Config, deps)
		if err != nil {
			return nil, fmt.Errorf("build filter %s: %w", fc.Type, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// BuildRecommender 按配置装配协调器：引擎配置透传、过滤器按注册表构建，
// 构造即触发首次全量训练。
func BuildRecommender(
	ctx context.Context,
	cfg *Config,
	users core.UserStore,
	items core.ItemStore,
	ratings core.RatingStore,
	logger zerolog.Logger,
) (*service.Recommender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	filters, err := BuildFilters(cfg.Recommender.Filters, Deps{Ratings: ratings})
	if err != nil {
		return nil, err
	}

	opts := service.Options{
		Mode: cfg.Recommender.Mode,
		Collaborative: engine.CollaborativeConfig{
			Method:              cfg.Recommender.Collaborative.Method,
			Metric:              cfg.Recommender.Collaborative.Metric,
			SimilarityThreshold: cfg.Recommender.Collaborative.SimilarityThreshold,
		},
		Filters: filters,
	}
	return service.NewRecommender(ctx, users, items, ratings, opts, logger)
}
