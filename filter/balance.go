package filter

import (
	"math/rand"

	"github.com/arcadelab/gamerec/core"
)

// familiarRatio 是最终结果中熟悉物品的目标占比。
const familiarRatio = 0.25

// Balance 把候选列表整形为熟悉/新颖混合的最终推荐。
//
// 两个分区各自独立均匀洗牌后取前缀——分区内部刻意丢弃相似度排序，避免
// 永远只推最近的几个邻居；保留的只有熟悉/新颖的划分本身。
type Balance struct {
	// Rand 是洗牌用的随机源；为 nil 时使用全局源。测试注入固定种子。
	Rand *rand.Rand
}

// NewBalance 创建结果筛选器。
func NewBalance() *Balance { return &Balance{} }

// Select 从候选中选出最多 n 个物品 ID。
//
//   - n <= 0 -> INVALID_COUNT；候选为空 -> NO_CANDIDATES
//   - ratedIDs 为空时直接返回前 n 个候选（保持相似度顺序，不洗牌）
//   - 否则按 ratedIDs 划分熟悉/新颖两个分区（各自保持候选中的相对顺序），
//     熟悉配额 floor(0.25*n)（受可用数量限制），其余配给新颖分区；
//     两个分区独立洗牌取前缀，最终列表 = 熟悉选中 + 新颖选中（拼接序）
//   - 两个分区都供给不足时结果可能短于 n，最后防御性截断到 n
func (f *Balance) Select(candidates []int64, ratedIDs []int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, core.ErrInvalidCount
	}
	if len(candidates) == 0 {
		return nil, core.ErrNoCandidates
	}

	if len(ratedIDs) == 0 {
		limit := n
		if limit > len(candidates) {
			limit = len(candidates)
		}
		out := make([]int64, limit)
		copy(out, candidates[:limit])
		return out, nil
	}

	rated := make(map[int64]struct{}, len(ratedIDs))
	for _, id := range ratedIDs {
		rated[id] = struct{}{}
	}

	var familiar, novel []int64
	for _, id := range candidates {
		if _, ok := rated[id]; ok {
			familiar = append(familiar, id)
		} else {
			novel = append(novel, id)
		}
	}

	nFamiliar := int(float64(n) * familiarRatio)
	if nFamiliar > len(familiar) {
		nFamiliar = len(familiar)
	}
	nNovel := n - nFamiliar

	selected := append(f.pick(familiar, nFamiliar), f.pick(novel, nNovel)...)
	if len(selected) > n {
		selected = selected[:n]
	}
	return selected, nil
}

// pick 洗牌后取前 limit 个，输入不被修改。
func (f *Balance) pick(ids []int64, limit int) []int64 {
	if limit > len(ids) {
		limit = len(ids)
	}
	if limit <= 0 {
		return nil
	}
	shuffled := make([]int64, len(ids))
	copy(shuffled, ids)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if f.Rand != nil {
		f.Rand.Shuffle(len(shuffled), swap)
	} else {
		rand.Shuffle(len(shuffled), swap)
	}
	return shuffled[:limit]
}
