package engine

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/pkg/similarity"
)

// 协同过滤的方法与相似度度量。
const (
	MethodUserBased = "user_based" // "兴趣相似的用户，喜欢相似的物品"
	MethodItemBased = "item_based" // "被同一批用户喜欢的物品，相互相似"

	MetricCosine  = "cosine"
	MetricPearson = "pearson"
)

// DefaultSimilarityThreshold 是相似度表的默认剪枝阈值。
// 低于等于阈值的相似度被视为"不足以影响预测"，不进表，以控制内存。
const DefaultSimilarityThreshold = 0.1

// 预测评分的合法区间，引擎输出一律截断到该区间内。
const (
	minPredictedRating = 0.5
	maxPredictedRating = 5.0
)

// CollaborativeConfig 是协同引擎的构造配置，构造后不可变。
type CollaborativeConfig struct {
	// Method 取 MethodUserBased / MethodItemBased，默认 user_based。
	Method string

	// Metric 取 MetricCosine / MetricPearson，默认 cosine。
	Metric string

	// SimilarityThreshold 是相似度表剪枝阈值。
	// 为 0 时取 DefaultSimilarityThreshold；设为负值可关闭剪枝（稠密模式）。
	SimilarityThreshold float64
}

// CollaborativeEngine 是协同过滤引擎。
//
// 算法流程：
//  1. 评分列表 → 用户-物品 / 物品-用户 双向矩阵
//  2. 每个用户/物品的均值表（用于均值中心化）
//  3. 全量两两相似度，剪枝后存为稀疏邻接表
//  4. 查询时对未见物品做相似度加权平均预测
//
// 每次 Train 从零整体重建全部工作表；训练期间要求独占访问，
// 训练完成后查询只读。
type CollaborativeEngine struct {
	method    string
	metric    string
	threshold float64
	simFunc   func(a, b []float64) float64
	logger    zerolog.Logger

	userItemRatings map[int64]map[int64]float64 // {userID: {itemID: rating}}
	itemUserRatings map[int64]map[int64]float64 // {itemID: {userID: rating}}
	userMeans       map[int64]float64
	itemMeans       map[int64]float64
	userSimilarity  map[int64]map[int64]float64 // 剪枝后的 user×user 邻接表
	itemSimilarity  map[int64]map[int64]float64 // 剪枝后的 item×item 邻接表
}

// NewCollaborativeEngine 创建协同过滤引擎；method/metric 在此固定。
func NewCollaborativeEngine(cfg CollaborativeConfig, logger zerolog.Logger) *CollaborativeEngine {
	method := cfg.Method
	if method == "" {
		method = MethodUserBased
	}
	metric := cfg.Metric
	if metric == "" {
		metric = MetricCosine
	}

	simFunc := similarity.Cosine
	if metric == MetricPearson {
		simFunc = similarity.Pearson
	}

	threshold := cfg.SimilarityThreshold
	if threshold == 0 {
		threshold = DefaultSimilarityThreshold
	}

	return &CollaborativeEngine{
		method:    method,
		metric:    metric,
		threshold: threshold,
		simFunc:   simFunc,
		logger:    logger.With().Str("component", "collaborative_engine").Str("method", method).Logger(),
	}
}

func (e *CollaborativeEngine) Name() string { return "engine.collaborative" }

// Train 用评分数据全量重建矩阵、均值表和相似度表。
// 相同输入训练两次结果完全一致（幂等）。
func (e *CollaborativeEngine) Train(_ context.Context, data *core.Dataset) error {
	e.userItemRatings = make(map[int64]map[int64]float64)
	e.itemUserRatings = make(map[int64]map[int64]float64)
	e.userMeans = make(map[int64]float64)
	e.itemMeans = make(map[int64]float64)
	e.userSimilarity = make(map[int64]map[int64]float64)
	e.itemSimilarity = make(map[int64]map[int64]float64)

	var ratings []*core.Rating
	if data != nil {
		ratings = data.Ratings
	}
	e.logger.Debug().Int("ratings", len(ratings)).Msg("training collaborative model")

	// 重建双向矩阵；同一 (user, item) 出现多条时后写覆盖先写
	for _, r := range ratings {
		if r == nil {
			continue
		}
		if e.userItemRatings[r.UserID] == nil {
			e.userItemRatings[r.UserID] = make(map[int64]float64)
		}
		e.userItemRatings[r.UserID][r.ItemID] = r.Value

		if e.itemUserRatings[r.ItemID] == nil {
			e.itemUserRatings[r.ItemID] = make(map[int64]float64)
		}
		e.itemUserRatings[r.ItemID][r.UserID] = r.Value
	}

	for userID, rs := range e.userItemRatings {
		e.userMeans[userID] = meanOf(rs)
	}
	for itemID, rs := range e.itemUserRatings {
		e.itemMeans[itemID] = meanOf(rs)
	}

	switch e.method {
	case MethodItemBased:
		e.itemSimilarity = e.computeSimilarities(e.itemUserRatings)
	default:
		e.userSimilarity = e.computeSimilarities(e.userItemRatings)
	}

	e.logger.Debug().Msg("collaborative model training complete")
	return nil
}

// computeSimilarities 对矩阵的行实体做全量两两相似度计算。
// 向量在列实体的有序并集上展开，保证任意两行按同一索引对齐；
// 只保留非 NaN 且严格大于阈值的结果。O(n²)。
func (e *CollaborativeEngine) computeSimilarities(matrix map[int64]map[int64]float64) map[int64]map[int64]float64 {
	rows := sortedKeys(matrix)

	colSet := make(map[int64]struct{})
	for _, rs := range matrix {
		for col := range rs {
			colSet[col] = struct{}{}
		}
	}
	cols := sortedKeys(colSet)

	vectors := make(map[int64][]float64, len(rows))
	for _, row := range rows {
		vec := make([]float64, len(cols))
		for i, col := range cols {
			vec[i] = matrix[row][col] // 缺失即 0（未评分哨兵）
		}
		vectors[row] = vec
	}

	table := make(map[int64]map[int64]float64, len(rows))
	for _, a := range rows {
		table[a] = make(map[int64]float64)
		for _, b := range rows {
			if a == b {
				continue
			}
			sim := e.simFunc(vectors[a], vectors[b])
			if !math.IsNaN(sim) && sim > e.threshold {
				table[a][b] = sim
			}
		}
	}
	return table
}

// RecommendForUser 为用户产出按预测评分降序的候选，最多 limit 个。
// 用户没有评分历史或没有相似邻居时返回空列表，不视为错误。
func (e *CollaborativeEngine) RecommendForUser(_ context.Context, userID int64, limit int) ([]core.ScoredItem, error) {
	if e.method == MethodItemBased {
		return e.itemBasedRecommendations(userID, limit), nil
	}
	return e.userBasedRecommendations(userID, limit), nil
}

func (e *CollaborativeEngine) userBasedRecommendations(userID int64, limit int) []core.ScoredItem {
	userRatings := e.userItemRatings[userID]
	if len(userRatings) == 0 {
		e.logger.Warn().Int64("user_id", userID).Msg("no ratings found for user")
		return nil
	}

	similarUsers := e.userSimilarity[userID]
	if len(similarUsers) == 0 {
		e.logger.Warn().Int64("user_id", userID).Msg("no similar users found for user")
		return nil
	}

	type accumulator struct {
		weightedSum   float64
		similaritySum float64
	}
	predictions := make(map[int64]*accumulator)

	// 按相似度从高到低遍历邻居。贡献是求和的，顺序不影响结果，
	// 这里排序只为可读性与确定性。
	for _, n := range sortedBySimilarity(similarUsers) {
		otherRatings := e.userItemRatings[n.id]
		otherMean := e.userMeans[n.id]

		for itemID, rating := range otherRatings {
			if _, rated := userRatings[itemID]; rated {
				continue
			}
			acc := predictions[itemID]
			if acc == nil {
				acc = &accumulator{}
				predictions[itemID] = acc
			}
			// 邻居评分先做均值中心化，消除个人打分尺度偏差
			acc.weightedSum += n.similarity * (rating - otherMean)
			acc.similaritySum += math.Abs(n.similarity)
		}
	}

	userMean := e.userMeans[userID]
	out := make([]core.ScoredItem, 0, len(predictions))
	for _, itemID := range sortedKeys(predictions) {
		acc := predictions[itemID]
		if acc.similaritySum <= 0 {
			continue // 没有有效权重，无信号
		}
		prediction := clampRating(userMean + acc.weightedSum/acc.similaritySum)
		out = append(out, core.ScoredItem{ItemID: itemID, Score: prediction})
	}

	return topByScore(out, limit)
}

// itemBasedRecommendations 与用户路径不对称：预测不做均值中心化，
// 物品间相似度已直接反映共同评分模式。此行为刻意保留。
func (e *CollaborativeEngine) itemBasedRecommendations(userID int64, limit int) []core.ScoredItem {
	userRatings := e.userItemRatings[userID]
	if len(userRatings) == 0 {
		e.logger.Warn().Int64("user_id", userID).Msg("no ratings found for user")
		return nil
	}

	out := make([]core.ScoredItem, 0)
	for _, itemID := range sortedKeys(e.itemUserRatings) {
		if _, rated := userRatings[itemID]; rated {
			continue
		}
		similarItems := e.itemSimilarity[itemID]
		if len(similarItems) == 0 {
			continue
		}

		var weightedSum, similaritySum float64
		for ratedItem, sim := range similarItems {
			if rating, ok := userRatings[ratedItem]; ok {
				weightedSum += sim * rating
				similaritySum += math.Abs(sim)
			}
		}
		if similaritySum <= 0 {
			continue
		}
		out = append(out, core.ScoredItem{ItemID: itemID, Score: clampRating(weightedSum / similaritySum)})
	}

	return topByScore(out, limit)
}

type neighbor struct {
	id         int64
	similarity float64
}

func sortedBySimilarity(m map[int64]float64) []neighbor {
	out := make([]neighbor, 0, len(m))
	for _, id := range sortedKeys(m) {
		out = append(out, neighbor{id: id, similarity: m[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].similarity > out[j].similarity
	})
	return out
}

// topByScore 按分数降序稳定排序后截断。
// 输入已按 itemID 升序构建，分数相同时稳定排序保持该顺序。
func topByScore(items []core.ScoredItem, limit int) []core.ScoredItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func clampRating(v float64) float64 {
	return math.Max(minPredictedRating, math.Min(maxPredictedRating, v))
}

func meanOf(ratings map[int64]float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, v := range ratings {
		sum += v
	}
	return sum / float64(len(ratings))
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var _ core.Engine = (*CollaborativeEngine)(nil)
