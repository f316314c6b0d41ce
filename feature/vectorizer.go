// Package feature 负责把稀疏的标签权重数据向量化为稠密特征矩阵。
//
// 维度集合（标签键的有序并集）是某一次目录拉取的派生产物，不是全局隐式
// 模式：不同快照的维度集合/顺序可能不同，不可互换使用。
package feature

import (
	"math"
	"sort"

	"github.com/arcadelab/gamerec/core"
)

// normEpsilon 是零向量归一化时的范数替代值：结果有限（非 NaN）但数值上
// 近似零，这是刻意的边界策略而非错误。
const normEpsilon = 1e-10

// TaggedItem 是一个物品的稀疏标签权重数据。
type TaggedItem struct {
	ID   int64
	Tags map[string]float64
}

// Vectorize 把一组稀疏标签数据转为稠密矩阵。
//
// 维度集合取所有输入键的排序并集；每个物品一行，缺失维度补 0。
// 返回平行的 id 列表、维度列表与矩阵；输入为空时返回显式空结果
// (nil, nil, nil)，不走错误通道。
func Vectorize(items []TaggedItem) (ids []int64, dims []string, matrix [][]float64) {
	if len(items) == 0 {
		return nil, nil, nil
	}

	dimSet := make(map[string]struct{})
	for _, it := range items {
		for tag := range it.Tags {
			dimSet[tag] = struct{}{}
		}
	}
	dims = make([]string, 0, len(dimSet))
	for tag := range dimSet {
		dims = append(dims, tag)
	}
	sort.Strings(dims)

	dimIndex := make(map[string]int, len(dims))
	for i, tag := range dims {
		dimIndex[tag] = i
	}

	ids = make([]int64, len(items))
	matrix = make([][]float64, len(items))
	for i, it := range items {
		ids[i] = it.ID
		row := make([]float64, len(dims))
		for tag, w := range it.Tags {
			row[dimIndex[tag]] = w
		}
		matrix[i] = row
	}
	return ids, dims, matrix
}

// Normalize 对矩阵逐行做 L2 归一化（余弦几何），返回新矩阵，不修改输入。
// 范数恰好为 0 的行用 normEpsilon 替代后再除。
func Normalize(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = normalizeRow(row)
	}
	return out
}

// NormalizeVector 对单个向量做 L2 归一化，返回新向量。
func NormalizeVector(vec []float64) []float64 {
	return normalizeRow(vec)
}

func normalizeRow(row []float64) []float64 {
	var sum float64
	for _, v := range row {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = normEpsilon
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v / norm
	}
	return out
}

// ItemVectorSource 提供按物品 ID 查询归一化特征向量的能力。
// catalog.Snapshot 实现此接口；定义在这里以避免 feature -> catalog 的依赖。
type ItemVectorSource interface {
	// Dim 返回向量维度
	Dim() int

	// VectorByID 返回物品的归一化特征向量；物品不在快照中时返回 false
	VectorByID(id int64) ([]float64, bool)
}

// VectorizePreference 把一组评分折叠为单个归一化偏好向量。
//
// 每条评分按极性权重缩放对应物品向量后累加；不在快照中的物品 ID 跳过。
// 累加结果为零向量时返回 nil，表示"无可用信号"（由调用方映射为错误）。
func VectorizePreference(ratings []core.Rating, src ItemVectorSource) []float64 {
	if src == nil || src.Dim() == 0 {
		return nil
	}

	acc := make([]float64, src.Dim())
	informative := false
	for _, r := range ratings {
		weight := r.Polarity.Weight()
		if weight == 0 {
			continue
		}
		vec, ok := src.VectorByID(r.AppID)
		if !ok {
			continue
		}
		for i, v := range vec {
			acc[i] += v * weight
		}
	}

	for _, v := range acc {
		if v != 0 {
			informative = true
			break
		}
	}
	if !informative {
		return nil
	}
	return normalizeRow(acc)
}
