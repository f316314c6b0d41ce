// Package profile 负责加载用户的原始评分并提供已评分物品集合。
package profile

import (
	"context"

	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/pkg/conv"
)

// Aggregator 按 (user, station) 键读取评分文档。
//
// 回落策略是产品决策，必须精确保留：请求键无文档时回落到默认（访客）键
// (1, 1)；默认键也没有时返回带 OriginNone 标记的空结果而非错误——
// "绝不让用户带着零信号离开"的两级回落。
type Aggregator struct {
	Store      core.DocumentStore
	Collection string

	// DefaultUserID / DefaultStationID 是访客档的键
	DefaultUserID    int64
	DefaultStationID int64
}

// NewAggregator 创建评分聚合器，使用默认集合名与访客键。
func NewAggregator(store core.DocumentStore) *Aggregator {
	return &Aggregator{
		Store:            store,
		Collection:       "game_feedback",
		DefaultUserID:    1,
		DefaultStationID: 1,
	}
}

// LoadRatings 执行两级回落的评分读取，返回带来源标记的结果。
//
// 文档中的单条评分解析是严格的：AppID 不可解析为整数时返回
// INVALID_RATING_DATA（这是存储数据损坏，必须上抛而非静默丢弃）。
func (a *Aggregator) LoadRatings(ctx context.Context, userID, stationID int64) (*core.RatingSet, error) {
	doc, err := a.findOne(ctx, userID, stationID)
	origin := core.OriginUser
	if core.IsStoreNotFound(err) {
		doc, err = a.findOne(ctx, a.DefaultUserID, a.DefaultStationID)
		origin = core.OriginDefault
		if core.IsStoreNotFound(err) {
			return &core.RatingSet{Origin: core.OriginNone}, nil
		}
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleProfile, core.ErrorCodeUnavailable, "profile: rating lookup failed", err)
	}

	ratings, err := parseRatings(doc)
	if err != nil {
		return nil, err
	}
	return &core.RatingSet{Origin: origin, Ratings: ratings}, nil
}

func (a *Aggregator) findOne(ctx context.Context, userID, stationID int64) (core.Document, error) {
	return a.Store.FindOne(ctx, a.Collection, core.Document{
		"UserID":    userID,
		"StationID": stationID,
	})
}

// RatedItemIDs 投影出评分列表中的物品 ID，供下游做熟悉/新颖划分与
// 近邻数量计算。保留原始顺序，不去重。
func RatedItemIDs(ratings []core.Rating) []int64 {
	ids := make([]int64, 0, len(ratings))
	for _, r := range ratings {
		ids = append(ids, r.AppID)
	}
	return ids
}

// parseRatings 解析评分文档的 rating 数组。
// 非 map 的数组元素跳过；AppID 字段存在但不可解析时整体报错。
func parseRatings(doc core.Document) ([]core.Rating, error) {
	raw, ok := doc["rating"].([]any)
	if !ok {
		return nil, nil
	}

	ratings := make([]core.Rating, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		rawID, present := m["AppID"]
		if !present {
			continue
		}
		id, ok := conv.ToInt64(rawID)
		if !ok {
			return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidRatingData, "profile: rating has unparsable AppID")
		}

		polarity, _ := conv.ToString(m["RatingType"])
		source := core.SourceExplicit
		if s, _ := conv.ToString(m["source"]); s == string(core.SourceQuiz) {
			source = core.SourceQuiz
		}
		ratings = append(ratings, core.Rating{
			AppID:    id,
			Polarity: core.Polarity(polarity),
			Source:   source,
		})
	}
	return ratings, nil
}
