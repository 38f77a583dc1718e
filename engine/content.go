package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/pkg/similarity"
)

// CategoryFeaturePrefix 是类目衍生特征的命名空间前缀。
// 类目特征与物品原生属性共用一套词表，加前缀避免命名冲突。
const CategoryFeaturePrefix = "category_"

// contentRatingScale 把 1-5 评分归一化为 [0,1] 权重：w = (rating-1)/4。
// 归一化后 <= 0 的评分视为负反馈，整条跳过，不进画像。
const (
	contentRatingOffset = 1.0
	contentRatingRange  = 4.0
)

// ContentEngine 是基于内容的推荐引擎。
//
// 算法流程：
//  1. 全量物品的属性 + 类目 → 有序去重的特征词表
//  2. 每个物品 → 特征向量（属性取值，类目二值 1.0）
//  3. 每个用户 → 加权画像：正反馈物品特征向量的加权质心，
//     显式类目偏好作为种子
//  4. 查询时对未评分物品计算画像/特征余弦相似度，
//     经固定仿射变换 1 + 4·sim 映射到 1-5 评分
//
// 词表顺序是同一次训练内所有向量的索引契约：属性名在前、类目特征在后，
// 各自按字典序。向量构建一律复用这份有序列表，不依赖 map 遍历顺序。
type ContentEngine struct {
	logger zerolog.Logger

	featureList     []string                    // 有序特征词表
	itemFeatures    map[int64]map[string]float64 // {itemID: {feature: value}}
	userProfiles    map[int64]map[string]float64 // {userID: {feature: weight}}
	userItemRatings map[int64]map[int64]float64  // {userID: {itemID: rating}}
}

// NewContentEngine 创建内容引擎。
func NewContentEngine(logger zerolog.Logger) *ContentEngine {
	return &ContentEngine{
		logger: logger.With().Str("component", "content_engine").Logger(),
	}
}

func (e *ContentEngine) Name() string { return "engine.content" }

// Train 用物品、用户、评分数据全量重建词表、物品向量和用户画像。
func (e *ContentEngine) Train(_ context.Context, data *core.Dataset) error {
	e.featureList = nil
	e.itemFeatures = make(map[int64]map[string]float64)
	e.userProfiles = make(map[int64]map[string]float64)
	e.userItemRatings = make(map[int64]map[int64]float64)

	if data == nil {
		return nil
	}
	e.logger.Debug().
		Int("items", len(data.Items)).
		Int("users", len(data.Users)).
		Int("ratings", len(data.Ratings)).
		Msg("training content model")

	e.buildFeatureList(data.Items)
	e.buildItemFeatures(data.Items)

	for _, r := range data.Ratings {
		if r == nil {
			continue
		}
		if e.userItemRatings[r.UserID] == nil {
			e.userItemRatings[r.UserID] = make(map[int64]float64)
		}
		e.userItemRatings[r.UserID][r.ItemID] = r.Value
	}

	e.buildUserProfiles(data.Users)

	e.logger.Debug().
		Int("features", len(e.featureList)).
		Int("profiles", len(e.userProfiles)).
		Msg("content model training complete")
	return nil
}

// buildFeatureList 汇总全量物品的属性名与类目特征，
// 组装成稳定有序的词表：属性字典序在前，类目特征字典序在后。
func (e *ContentEngine) buildFeatureList(items []*core.Item) {
	featureSet := make(map[string]struct{})
	categorySet := make(map[string]struct{})

	for _, it := range items {
		if it == nil {
			continue
		}
		for name := range it.Features {
			featureSet[name] = struct{}{}
		}
		for _, c := range it.Categories {
			categorySet[CategoryFeaturePrefix+c] = struct{}{}
		}
	}

	e.featureList = append(sortedStrings(featureSet), sortedStrings(categorySet)...)
}

func (e *ContentEngine) buildItemFeatures(items []*core.Item) {
	for _, it := range items {
		if it == nil {
			continue
		}
		features := make(map[string]float64, len(it.Features)+len(it.Categories))
		for name, value := range it.Features {
			features[name] = value
		}
		for _, c := range it.Categories {
			features[CategoryFeaturePrefix+c] = 1.0 // 类目是二值存在性特征
		}
		e.itemFeatures[it.ID] = features
	}
}

// buildUserProfiles 为每个有评分的用户构建加权画像。
// 显式类目偏好先落进画像作种子，评分贡献在其上累加；
// 最后整体除以有效权重和，得到"喜欢物品"特征向量的加权质心。
func (e *ContentEngine) buildUserProfiles(users []*core.User) {
	preferences := make(map[int64]map[string]float64, len(users))
	for _, u := range users {
		if u != nil {
			preferences[u.ID] = u.Preferences
		}
	}

	for userID, ratings := range e.userItemRatings {
		if len(ratings) == 0 {
			continue
		}

		profile := make(map[string]float64)
		for category, weight := range preferences[userID] {
			profile[CategoryFeaturePrefix+category] = weight
		}

		var totalWeight float64
		for itemID, rating := range ratings {
			weight := (rating - contentRatingOffset) / contentRatingRange
			if weight <= 0 {
				continue // 负反馈物品不进画像，也不计入权重和
			}
			totalWeight += weight

			for feature, value := range e.itemFeatures[itemID] {
				profile[feature] += value * weight
			}
		}

		if totalWeight > 0 {
			for feature := range profile {
				profile[feature] /= totalWeight
			}
		}

		e.userProfiles[userID] = profile
	}
}

// RecommendForUser 为用户产出按预测评分降序的候选，最多 limit 个。
// 用户没有画像（没有任何正反馈）时返回空列表，不视为错误。
func (e *ContentEngine) RecommendForUser(_ context.Context, userID int64, limit int) ([]core.ScoredItem, error) {
	profile := e.userProfiles[userID]
	if len(profile) == 0 {
		e.logger.Warn().Int64("user_id", userID).Msg("no profile found for user")
		return nil, nil
	}

	ratedItems := e.userItemRatings[userID]
	userVector := e.vectorize(profile)

	out := make([]core.ScoredItem, 0, len(e.itemFeatures))
	for _, itemID := range sortedKeys(e.itemFeatures) {
		if _, rated := ratedItems[itemID]; rated {
			continue
		}
		sim := similarity.Cosine(userVector, e.vectorize(e.itemFeatures[itemID]))
		// 相似度经固定仿射变换映射到 1-5 评分量表
		predicted := 1.0 + 4.0*sim
		out = append(out, core.ScoredItem{ItemID: itemID, Score: predicted})
	}

	return topByScore(out, limit), nil
}

// vectorize 按词表顺序展开成稠密向量，缺失特征取 0。
func (e *ContentEngine) vectorize(features map[string]float64) []float64 {
	vec := make([]float64, len(e.featureList))
	for i, name := range e.featureList {
		vec[i] = features[name]
	}
	return vec
}

// ExplanationEntry 是解释输出中的一项特征贡献。
type ExplanationEntry struct {
	Feature      string  // 原始特征名（类目特征含前缀）
	DisplayName  string  // 展示名：类目前缀已剥离
	UserWeight   float64 // 用户画像中该特征的权重
	ItemValue    float64 // 物品该特征的取值
	Contribution float64 // UserWeight × ItemValue
}

// Explanation 解释某个物品为何被推荐给某个用户。
type Explanation struct {
	UserID      int64
	ItemID      int64
	TopFeatures []ExplanationEntry
}

// ExplainRecommendation 返回驱动该推荐的前 topFeatures 个共同特征。
// 按贡献（画像权重 × 特征值，双方均为正才计入）降序选取；
// 若用户画像与物品存在共同的类目特征，至少保证一个类目特征出现在
// 结果中——类目匹配是对解释消费方最直观的信号。
func (e *ContentEngine) ExplainRecommendation(userID, itemID int64, topFeatures int) (*Explanation, error) {
	profile := e.userProfiles[userID]
	itemFeats := e.itemFeatures[itemID]
	if len(profile) == 0 || len(itemFeats) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound,
			fmt.Sprintf("no explanation data for user %d, item %d", userID, itemID))
	}

	if topFeatures <= 0 {
		topFeatures = 3
	}

	entries := make([]ExplanationEntry, 0)
	for _, feature := range e.featureList {
		userWeight := profile[feature]
		itemValue := itemFeats[feature]
		if userWeight <= 0 || itemValue <= 0 {
			continue
		}
		entries = append(entries, ExplanationEntry{
			Feature:      feature,
			DisplayName:  strings.TrimPrefix(feature, CategoryFeaturePrefix),
			UserWeight:   userWeight,
			ItemValue:    itemValue,
			Contribution: userWeight * itemValue,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Contribution > entries[j].Contribution
	})

	top := entries
	if len(top) > topFeatures {
		top = top[:topFeatures]
	}

	// 保证至少一个共同类目特征进入解释
	if !containsCategoryFeature(top) {
		for _, entry := range entries[len(top):] {
			if isCategoryFeature(entry.Feature) {
				top[len(top)-1] = entry
				break
			}
		}
	}

	return &Explanation{UserID: userID, ItemID: itemID, TopFeatures: top}, nil
}

func isCategoryFeature(name string) bool {
	return strings.HasPrefix(name, CategoryFeaturePrefix)
}

func containsCategoryFeature(entries []ExplanationEntry) bool {
	for _, entry := range entries {
		if isCategoryFeature(entry.Feature) {
			return true
		}
	}
	return false
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

var _ core.Engine = (*ContentEngine)(nil)
