// Package quiz 把入门问卷的回答扩展为合成评分，补强冷启动用户的偏好信号。
package quiz

import (
	"context"
	"strings"

	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/pkg/conv"
)

// gameplayToTag 把玩法偏好选项映射到单个标签名。
var gameplayToTag = map[string]string{
	"Solo games":               "singleplayer",
	"Multiplayer with friends": "co_op",
	"Competitive multiplayer":  "competitive",
	"Open world exploration":   "open_world",
}

// goalToTags 把游戏目标选项映射到多个标签名。
var goalToTags = map[string][]string{
	"Competition and achievement": {"competitive", "difficult"},
	"Relaxation and entertainment": {"casual", "relaxing"},
	"Story and narrative":          {"story_rich", "adventure"},
	"Creative expression":          {"sandbox", "building"},
}

// Augmenter 按 (quizID, questionType) 分发问卷回答并产出问卷来源的评分。
//
// 只解释 multiSelect 题型；无法识别的回答形状跳过，绝不中断其余回答的
// 增强。阈值查询走存储的 FindWhereFieldGT，每个标签取前若干个高权重物品。
type Augmenter struct {
	Store             core.DocumentStore
	Collection        string // 问卷回答集合
	CatalogCollection string // 标签权重集合（阈值查询目标）

	GenreThreshold float64 // 类型/玩法题的权重阈值
	GoalThreshold  float64 // 目标题的权重阈值（更低，标签更细）
	GenreCap       int64   // 每个类型最多取的物品数
	GameplayCap    int64   // 每个玩法标签最多取的物品数
	GoalCap        int64   // 每个目标标签最多取的物品数

	// DefaultUserID / DefaultStationID 是问卷回答的默认回落键
	DefaultUserID    int64
	DefaultStationID int64
}

// NewAugmenter 创建问卷增强器，使用历史沿用的默认阈值/上限与回落键。
func NewAugmenter(store core.DocumentStore) *Augmenter {
	return &Augmenter{
		Store:             store,
		Collection:        "quizResponses",
		CatalogCollection: "steam_genre",
		GenreThreshold:    50,
		GoalThreshold:     30,
		GenreCap:          5,
		GameplayCap:       3,
		GoalCap:           2,
		DefaultUserID:     1,
		DefaultStationID:  1746305091322,
	}
}

// LoadResponses 读取 (user, station) 的问卷回答；无文档时回落到默认键，
// 两级都没有时返回空列表（问卷缺失不是错误，增强直接退化为恒等）。
func (a *Augmenter) LoadResponses(ctx context.Context, userID, stationID int64) ([]core.QuizResponse, error) {
	doc, err := a.findOne(ctx, userID, stationID)
	if core.IsStoreNotFound(err) {
		doc, err = a.findOne(ctx, a.DefaultUserID, a.DefaultStationID)
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleQuiz, core.ErrorCodeUnavailable, "quiz: response lookup failed", err)
	}
	return parseResponses(doc), nil
}

func (a *Augmenter) findOne(ctx context.Context, userID, stationID int64) (core.Document, error) {
	return a.Store.FindOne(ctx, a.Collection, core.Document{
		"userID":    userID,
		"stationID": stationID,
	})
}

// Augment 把问卷推导的评分合并进原始评分列表。
//
// 合并按物品 ID 去重并保留首次出现的位置；同一物品冲突时问卷来源的条目
// 覆盖原有条目（问卷视为更新、更权威的信号）。
func (a *Augmenter) Augment(ctx context.Context, ratings []core.Rating, responses []core.QuizResponse) ([]core.Rating, error) {
	merged := make([]core.Rating, len(ratings))
	copy(merged, ratings)

	for _, resp := range responses {
		if resp.QuestionType != core.QuestionMultiSelect {
			continue
		}

		var extra []core.Rating
		var err error
		switch resp.QuizID {
		case 1:
			extra = directPicks(resp.Selection)
		case 2:
			extra, err = a.byTagThreshold(ctx, lowered(resp.Selection), a.GenreThreshold, a.GenreCap)
		case 3:
			extra, err = a.byTagThreshold(ctx, mapGameplay(resp.Selection), a.GenreThreshold, a.GameplayCap)
		case 4:
			extra, err = a.byTagThreshold(ctx, mapGoals(resp.Selection), a.GoalThreshold, a.GoalCap)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		merged = append(merged, extra...)
	}

	return dedupe(merged), nil
}

// directPicks 把 quiz 1 的选择（直接就是物品 ID）转为正向评分。
// 不可解析的选择跳过。
func directPicks(selection []string) []core.Rating {
	out := make([]core.Rating, 0, len(selection))
	for _, sel := range selection {
		id, ok := conv.ToInt64(sel)
		if !ok {
			continue
		}
		out = append(out, quizRating(id))
	}
	return out
}

// byTagThreshold 对每个标签名做一次阈值查询，取权重高于 threshold 的
// 前 limit 个物品，产出正向评分。单个标签查询失败向上传播（存储故障不属于
// "无法识别的回答形状"）。
func (a *Augmenter) byTagThreshold(ctx context.Context, tags []string, threshold float64, limit int64) ([]core.Rating, error) {
	var out []core.Rating
	for _, tag := range tags {
		docs, err := a.Store.FindWhereFieldGT(ctx, a.CatalogCollection, "genre."+tag, threshold, limit)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleQuiz, core.ErrorCodeUnavailable, "quiz: tag threshold query failed", err)
		}
		for _, doc := range docs {
			id, ok := conv.ToInt64(doc["AppID"])
			if !ok {
				continue
			}
			out = append(out, quizRating(id))
		}
	}
	return out, nil
}

func quizRating(id int64) core.Rating {
	return core.Rating{AppID: id, Polarity: core.PolarityPositive, Source: core.SourceQuiz}
}

func lowered(selection []string) []string {
	out := make([]string, len(selection))
	for i, s := range selection {
		out[i] = strings.ToLower(s)
	}
	return out
}

func mapGameplay(selection []string) []string {
	var out []string
	for _, s := range selection {
		if tag, ok := gameplayToTag[s]; ok {
			out = append(out, tag)
		}
	}
	return out
}

func mapGoals(selection []string) []string {
	var out []string
	for _, s := range selection {
		if tags, ok := goalToTags[s]; ok {
			out = append(out, tags...)
		}
	}
	return out
}

// dedupe 按物品 ID 去重，保留首次出现的位置；问卷来源的后到条目
// 覆盖同一物品的已有条目。
func dedupe(ratings []core.Rating) []core.Rating {
	out := make([]core.Rating, 0, len(ratings))
	index := make(map[int64]int, len(ratings))
	for _, r := range ratings {
		if i, seen := index[r.AppID]; seen {
			if r.Source == core.SourceQuiz {
				out[i] = r
			}
			continue
		}
		index[r.AppID] = len(out)
		out = append(out, r)
	}
	return out
}

// parseResponses 容错解析 responses 数组：缺字段/类型不符的条目跳过。
func parseResponses(doc core.Document) []core.QuizResponse {
	raw, ok := doc["responses"].([]any)
	if !ok {
		return nil
	}
	out := make([]core.QuizResponse, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		quizID, ok := conv.ToInt64(m["quizID"])
		if !ok {
			continue
		}
		questionType, _ := conv.ToString(m["questionType"])
		out = append(out, core.QuizResponse{
			QuizID:       quizID,
			QuestionType: questionType,
			Selection:    conv.SliceAnyToString(m["selection"]),
		})
	}
	return out
}
