// Package catalog 维护目录物品的权威特征快照：有序物品 ID 列表 + 归一化
// 特征矩阵，从文档存储分批加载并整体重建。
package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/feature"
	"github.com/arcadelab/gamerec/pkg/conv"
)

// State 是索引的生命周期状态：Empty -> Loading -> Ready，
// refresh 时 Ready -> Loading -> Ready；加载后无可用文档则回到 Empty。
type State int32

const (
	StateEmpty State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "empty"
	}
}

// Snapshot 是一次加载产出的不可变快照。发布后不再修改：刷新产生新快照
// 整体替换引用，持有旧快照的读者不受影响。
//
// 不变式：每行恰好 len(Dims) 个分量，行序与 IDs 对齐；
// 不同快照的维度集合可能不同，不可跨快照混用 id 列表与矩阵。
type Snapshot struct {
	IDs    []int64
	Dims   []string
	Matrix [][]float64

	rowByID map[int64]int
}

func newSnapshot(ids []int64, dims []string, matrix [][]float64) *Snapshot {
	rowByID := make(map[int64]int, len(ids))
	for i, id := range ids {
		rowByID[id] = i
	}
	return &Snapshot{IDs: ids, Dims: dims, Matrix: matrix, rowByID: rowByID}
}

// Len 返回快照中的物品数。
func (s *Snapshot) Len() int { return len(s.IDs) }

// Dim 返回特征维度数（标签维度集合大小）。
func (s *Snapshot) Dim() int { return len(s.Dims) }

// VectorByID 返回物品的归一化特征向量；物品不在快照中时返回 false。
func (s *Snapshot) VectorByID(id int64) ([]float64, bool) {
	i, ok := s.rowByID[id]
	if !ok {
		return nil, false
	}
	return s.Matrix[i], true
}

// Contains 检查物品是否在快照中。
func (s *Snapshot) Contains(id int64) bool {
	_, ok := s.rowByID[id]
	return ok
}

// TagsByID 按物品 ID 重建稀疏标签权重 map（只含非零维度）。
// 供规则过滤等需要按标签名访问权重的场景使用。
func (s *Snapshot) TagsByID(id int64) map[string]float64 {
	vec, ok := s.VectorByID(id)
	if !ok {
		return nil
	}
	tags := make(map[string]float64)
	for i, v := range vec {
		if v != 0 {
			tags[s.Dims[i]] = v
		}
	}
	return tags
}

var _ feature.ItemVectorSource = (*Snapshot)(nil)

// Index 持有当前目录快照，单写多读：加载/刷新在独占窗口内原子替换快照
// 引用，读者拿到的引用永远指向完整构建好的快照。
type Index struct {
	store      core.DocumentStore
	collection string
	batchSize  int64
	maxItems   int
	timeout    time.Duration

	mu    sync.RWMutex
	snap  *Snapshot
	state State

	group singleflight.Group
}

// Option 配置 Index。
type Option func(*Index)

// WithCollection 设置目录集合名（默认 "steam_genre"）。
func WithCollection(name string) Option {
	return func(ix *Index) { ix.collection = name }
}

// WithBatchSize 设置分批加载的批大小（默认 500）。
func WithBatchSize(n int64) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithLoadLimits 设置默认的最大物品数与加载软超时，供 Snapshot 触发的
// 惰性加载使用；0 表示不限制。
func WithLoadLimits(maxItems int, timeout time.Duration) Option {
	return func(ix *Index) {
		ix.maxItems = maxItems
		ix.timeout = timeout
	}
}

// NewIndex 创建目录索引，初始状态为 Empty，首次 Snapshot 调用触发加载。
func NewIndex(store core.DocumentStore, opts ...Option) *Index {
	ix := &Index{
		store:      store,
		collection: "steam_genre",
		batchSize:  500,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// State 返回当前生命周期状态。
func (ix *Index) State() State {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

// Snapshot 返回当前快照；尚无快照时触发一次默认参数的加载。
func (ix *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	ix.mu.RLock()
	snap := ix.snap
	ix.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return ix.Load(ctx, ix.maxItems, ix.timeout)
}

// Load 从存储分批拉取目录文档并重建快照。
//
//   - maxItems > 0 时最多累积 maxItems 条；timeout > 0 是批间检查的软
//     截止时间，到期保留已累积的部分目录（降级而非失败）
//   - 单条损坏文档跳过，不中断整批
//   - 零可用文档时发布显式空快照（Empty 状态），不保留旧数据
//   - 并发 Load 合并为一次存储拉取（singleflight），后到者等待并共享结果
func (ix *Index) Load(ctx context.Context, maxItems int, timeout time.Duration) (*Snapshot, error) {
	// 0 值表示使用构造时配置的默认限制
	if maxItems == 0 {
		maxItems = ix.maxItems
	}
	if timeout == 0 {
		timeout = ix.timeout
	}
	v, err, _ := ix.group.Do("load", func() (any, error) {
		return ix.doLoad(ctx, maxItems, timeout)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Reload 丢弃当前快照引用并执行一次全新加载。持有旧快照引用的在途读者
// 不受影响，直到下次调用 Snapshot 才看到新数据。
func (ix *Index) Reload(ctx context.Context, maxItems int, timeout time.Duration) (*Snapshot, error) {
	ix.mu.Lock()
	ix.snap = nil
	ix.state = StateEmpty
	ix.mu.Unlock()
	return ix.Load(ctx, maxItems, timeout)
}

// TagWeights 按物品 ID 集合从存储读取原始标签权重数据。
// 与快照无关，返回的是存储中的当前值（调试/巡检用）。
func (ix *Index) TagWeights(ctx context.Context, ids []int64) (map[int64]map[string]float64, error) {
	docs, err := ix.store.FindByIDs(ctx, ix.collection, ids)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: tag lookup failed", err)
	}
	out := make(map[int64]map[string]float64, len(docs))
	for _, doc := range docs {
		item, ok := parseCatalogDoc(doc)
		if !ok {
			continue
		}
		out[item.ID] = item.Tags
	}
	return out, nil
}

func (ix *Index) doLoad(ctx context.Context, maxItems int, timeout time.Duration) (*Snapshot, error) {
	ix.mu.Lock()
	ix.state = StateLoading
	ix.mu.Unlock()

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	var items []feature.TaggedItem
	var offset int64
	for {
		if maxItems > 0 && len(items) >= maxItems {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			// 软截止：保留已累积的部分目录
			break
		}

		batch, err := ix.store.FindBatch(ctx, ix.collection, offset, ix.batchSize)
		if err != nil {
			if len(items) > 0 {
				// 已有部分数据，按降级快照处理
				break
			}
			ix.publish(nil)
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: load failed", err)
		}

		for _, doc := range batch {
			item, ok := parseCatalogDoc(doc)
			if !ok {
				continue
			}
			items = append(items, item)
		}

		if int64(len(batch)) < ix.batchSize {
			break
		}
		offset += ix.batchSize
	}

	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	ids, dims, matrix := feature.Vectorize(items)
	if len(ids) == 0 {
		snap := ix.publish(nil)
		return snap, nil
	}

	snap := newSnapshot(ids, dims, feature.Normalize(matrix))
	ix.publish(snap)
	return snap, nil
}

// publish 原子发布快照并推进状态；snap 为 nil 时发布显式空快照。
func (ix *Index) publish(snap *Snapshot) *Snapshot {
	if snap == nil {
		snap = newSnapshot(nil, nil, nil)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.snap = snap
	if snap.Len() == 0 {
		ix.state = StateEmpty
	} else {
		ix.state = StateReady
	}
	return snap
}

// parseCatalogDoc 把单条目录文档解析为稀疏标签数据。
// 缺 AppID、缺 genre 或 genre 不是 map 的文档视为损坏，跳过。
func parseCatalogDoc(doc core.Document) (feature.TaggedItem, bool) {
	id, ok := conv.ToInt64(doc["AppID"])
	if !ok {
		return feature.TaggedItem{}, false
	}
	switch raw := doc["genre"].(type) {
	case map[string]any:
		return feature.TaggedItem{ID: id, Tags: conv.MapToFloat64(raw)}, true
	case map[string]float64:
		return feature.TaggedItem{ID: id, Tags: raw}, true
	default:
		return feature.TaggedItem{}, false
	}
}
