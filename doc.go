// Package gamerec 是一个基于内容的游戏推荐库。
//
// 设计要点：
// - 检索排序链路：标签向量化 → 目录快照 → 偏好聚合 → 问卷增强 → 余弦近邻 → 熟悉/新颖配比筛选
// - 快照优先：目录以不可变快照整体重建与原子替换，单写多读，读者永不阻塞
// - 存储解耦：领域层只消费 core.DocumentStore / core.CacheStore 查询面，Mongo/Redis/内存实现可插拔
package gamerec

import (
	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/service"
)

// 轻量 facade：便于用户直接 import "gamerec" 使用核心抽象。
type Recommender = service.Recommender
type Rating = core.Rating
type RatingSet = core.RatingSet
type QuizResponse = core.QuizResponse
type DocumentStore = core.DocumentStore
type CacheStore = core.CacheStore

// New 组装完整推荐链路，等价于 service.New。
var New = service.New
