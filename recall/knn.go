// Package recall 提供基于目录快照的余弦近邻检索。
package recall

import (
	"math"
	"sort"
	"sync"

	"github.com/arcadelab/gamerec/catalog"
	"github.com/arcadelab/gamerec/core"
)

// KNN 是精确的余弦距离近邻索引：Untrained -> Trained，可通过强制 Fit
// 重新进入。训练时持有快照引用，id 列表与矩阵永远来自同一快照瞬间——
// 训练与查询之间的快照替换不会让行序与 id 脱节。
type KNN struct {
	mu      sync.RWMutex
	snap    *catalog.Snapshot
	trained bool
}

// NewKNN 创建未训练的索引。
func NewKNN() *KNN { return &KNN{} }

// Fit 在快照的归一化矩阵上建立索引；已训练且未强制时幂等返回。
// 空快照快速失败（CATALOG_EMPTY）。
func (k *KNN) Fit(snap *catalog.Snapshot, force bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.trained && !force {
		return nil
	}
	if snap == nil || snap.Len() == 0 {
		return core.ErrCatalogEmpty
	}
	k.snap = snap
	k.trained = true
	return nil
}

// Trained 返回索引是否已训练。
func (k *KNN) Trained() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.trained
}

// FittedSnapshot 返回训练时使用的快照（查询方必须用它做 id 映射）。
func (k *KNN) FittedSnapshot() *catalog.Snapshot {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.snap
}

// Search 在给定快照上对查询向量做暴力余弦近邻检索，返回按距离升序的
// 行索引与距离（distance = 1 - cosine similarity）。topK 超出目录大小时收窄。
//
// snap 为 nil 时使用训练时的快照。调用方若已为向量化/ID 映射固定了某个
// 快照，必须把同一个快照传进来：行索引只在产生它的快照里有意义，训练与
// 查询之间的刷新不得使在途请求的 ID 映射错位。
func (k *KNN) Search(snap *catalog.Snapshot, vector []float64, topK int) ([]int, []float64, error) {
	if snap == nil {
		k.mu.RLock()
		snap = k.snap
		k.mu.RUnlock()
	}
	if snap == nil || snap.Len() == 0 {
		return nil, nil, core.ErrCatalogEmpty
	}
	if len(vector) != snap.Dim() {
		return nil, nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeInvalidInput, "recall: query vector dimension mismatch")
	}
	if topK <= 0 {
		topK = 10
	}
	if topK > snap.Len() {
		topK = snap.Len()
	}

	type scoredRow struct {
		row  int
		dist float64
	}
	rows := make([]scoredRow, snap.Len())
	for i, itemVec := range snap.Matrix {
		rows[i] = scoredRow{row: i, dist: 1.0 - cosineSimilarity(vector, itemVec)}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].dist == rows[j].dist {
			return rows[i].row < rows[j].row
		}
		return rows[i].dist < rows[j].dist
	})

	indices := make([]int, topK)
	distances := make([]float64, topK)
	for i := 0; i < topK; i++ {
		indices[i] = rows[i].row
		distances[i] = rows[i].dist
	}
	return indices, distances, nil
}

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
