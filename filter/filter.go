// Package filter 负责把原始近邻候选整形为最终答案：先应用可组合的排除
// 过滤器，再按固定比例混合熟悉与新颖物品。
package filter

// Candidate 是进入过滤阶段的单个候选。
type Candidate struct {
	ID       int64
	Distance float64            // 与用户偏好向量的余弦距离
	Familiar bool               // 用户是否已评分过该物品
	Tags     map[string]float64 // 归一化后的非零标签权重
}

// Filter 是排除过滤器的抽象接口，返回 true 表示排除该候选。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// Excluded 判断候选是否应该被排除
	Excluded(c *Candidate) (bool, error)
}

// Chain 依次应用多个过滤器。任何一个过滤器判定排除即排除；
// 过滤器自身出错时跳过该过滤器，不中断流程。
type Chain struct {
	Filters []Filter
}

// Apply 返回通过所有过滤器的候选，保持原有顺序。
func (c *Chain) Apply(candidates []*Candidate) []*Candidate {
	if c == nil || len(c.Filters) == 0 || len(candidates) == 0 {
		return candidates
	}
	out := make([]*Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand == nil {
			continue
		}
		excluded := false
		for _, f := range c.Filters {
			ok, err := f.Excluded(cand)
			if err != nil {
				continue
			}
			if ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, cand)
		}
	}
	return out
}

// IDs 投影出候选的物品 ID，保持顺序。
func IDs(candidates []*Candidate) []int64 {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	return ids
}
