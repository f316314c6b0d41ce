// Package service 编排完整的推荐链路：目录快照 -> 评分加载 -> 问卷增强 ->
// 偏好向量化 -> 近邻检索 -> 结果筛选。
package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/arcadelab/gamerec/catalog"
	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/feature"
	"github.com/arcadelab/gamerec/filter"
	"github.com/arcadelab/gamerec/profile"
	"github.com/arcadelab/gamerec/quiz"
	"github.com/arcadelab/gamerec/recall"
)

// Recommender 是推荐服务的编排入口。显式构造、显式生命周期
// （New -> Train -> Recommend，Refresh 强制重建），以共享句柄的形式
// 传给请求层——不做任何隐式全局状态。
//
// 并发模型：不同用户的 Recommend 调用相互独立，只共享只读的目录快照与
// 训练好的索引；刷新期间在途请求继续使用旧快照/旧索引直至完成。
type Recommender struct {
	Catalog *catalog.Index
	Profile *profile.Aggregator
	Quiz    *quiz.Augmenter
	KNN     *recall.KNN
	Balance *filter.Balance
	Chain   *filter.Chain

	// Cache 为 nil 时关闭结果缓存；TTL 单位秒
	Cache    core.CacheStore
	CacheTTL int

	// MaxRecommendations 是单次请求数量上限
	MaxRecommendations int

	// generation 随每次 Refresh 递增，参与缓存 key，使旧结果自然失效
	generation atomic.Int64

	trainMu     sync.Mutex
	catalogOpts []catalog.Option
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithCache 启用结果缓存。
func WithCache(cache core.CacheStore, ttlSeconds int) Option {
	return func(r *Recommender) {
		r.Cache = cache
		r.CacheTTL = ttlSeconds
	}
}

// WithExclusionChain 设置候选排除过滤链（规则过滤等）。
func WithExclusionChain(chain *filter.Chain) Option {
	return func(r *Recommender) { r.Chain = chain }
}

// WithMaxRecommendations 设置单次请求数量上限（默认 20）。
func WithMaxRecommendations(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.MaxRecommendations = n
		}
	}
}

// WithCatalogOptions 透传目录索引的构造选项。
func WithCatalogOptions(opts ...catalog.Option) Option {
	return func(r *Recommender) {
		// Catalog 在 New 中构造，这里只记录选项
		r.catalogOpts = append(r.catalogOpts, opts...)
	}
}

// New 基于单个文档存储组装整条链路。
func New(docStore core.DocumentStore, opts ...Option) *Recommender {
	r := &Recommender{
		MaxRecommendations: 20,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Catalog = catalog.NewIndex(docStore, r.catalogOpts...)
	r.Profile = profile.NewAggregator(docStore)
	r.Quiz = quiz.NewAugmenter(docStore)
	r.KNN = recall.NewKNN()
	r.Balance = filter.NewBalance()
	return r
}

// Train 确保近邻索引基于当前目录快照训练完成；已训练且未强制时幂等。
// 空目录快速失败（CATALOG_EMPTY）。
func (r *Recommender) Train(ctx context.Context, force bool) error {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	if r.KNN.Trained() && !force {
		return nil
	}
	snap, err := r.Catalog.Snapshot(ctx)
	if err != nil {
		return err
	}
	return r.KNN.Fit(snap, force)
}

// Refresh 强制重新加载目录并重训索引（目录可能已变化时调用）。
// 在途请求继续使用旧快照/旧索引；新请求使用新的。
func (r *Recommender) Refresh(ctx context.Context) error {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	snap, err := r.Catalog.Reload(ctx, 0, 0)
	if err != nil {
		return err
	}
	if err := r.KNN.Fit(snap, true); err != nil {
		return err
	}
	r.generation.Add(1)
	return nil
}

// Recommend 为 (user, station) 生成最多 n 个推荐物品 ID。
//
// userID/stationID 接受字符串形式（请求层原样传入），不可转换为整数时
// 返回 INVALID_INPUT；n 必须在 (0, MaxRecommendations] 区间内。
func (r *Recommender) Recommend(ctx context.Context, userID, stationID string, n int) ([]int64, error) {
	uid, err := coerceID("user_id", userID)
	if err != nil {
		return nil, err
	}
	sid, err := coerceID("station_id", stationID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > r.MaxRecommendations {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			fmt.Sprintf("service: n_recommendations must be in (0, %d]", r.MaxRecommendations))
	}

	if err := r.Train(ctx, false); err != nil {
		return nil, err
	}

	cacheKey := r.cacheKey(uid, sid, n)
	if ids, ok := r.cacheGet(ctx, cacheKey); ok {
		return ids, nil
	}

	// 评分与问卷回答并发读取
	var (
		ratingSet *core.RatingSet
		responses []core.QuizResponse
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		ratingSet, err = r.Profile.LoadRatings(egCtx, uid, sid)
		return err
	})
	eg.Go(func() error {
		var err error
		responses, err = r.Quiz.LoadResponses(egCtx, uid, sid)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(ratingSet.Ratings) == 0 {
		return nil, core.ErrNoRatings
	}

	augmented, err := r.Quiz.Augment(ctx, ratingSet.Ratings, responses)
	if err != nil {
		return nil, err
	}

	// 向量化、近邻检索与 id 映射全部固定在同一个快照上：请求中途的刷新
	// 不会使检索返回的行索引与这里的 id 列表脱节
	snap := r.KNN.FittedSnapshot()
	userVector := feature.VectorizePreference(augmented, snap)
	if userVector == nil {
		return nil, core.ErrNoSignal
	}

	ratedIDs := profile.RatedItemIDs(ratingSet.Ratings)
	k := 2*n + len(ratedIDs)
	if k > snap.Len() {
		k = snap.Len()
	}

	indices, distances, err := r.KNN.Search(snap, userVector, k)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, core.ErrNoSimilarItems
	}

	candidates := r.buildCandidates(snap, indices, distances, ratedIDs)
	candidates = r.Chain.Apply(candidates)

	selected, err := r.Balance.Select(filter.IDs(candidates), ratedIDs, n)
	if err != nil {
		if core.IsNoCandidates(err) {
			return nil, core.ErrNoSimilarItems
		}
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, selected)
	return selected, nil
}

func (r *Recommender) buildCandidates(snap *catalog.Snapshot, indices []int, distances []float64, ratedIDs []int64) []*filter.Candidate {
	rated := make(map[int64]struct{}, len(ratedIDs))
	for _, id := range ratedIDs {
		rated[id] = struct{}{}
	}
	out := make([]*filter.Candidate, 0, len(indices))
	for i, row := range indices {
		id := snap.IDs[row]
		_, familiar := rated[id]
		out = append(out, &filter.Candidate{
			ID:       id,
			Distance: distances[i],
			Familiar: familiar,
			Tags:     snap.TagsByID(id),
		})
	}
	return out
}

func (r *Recommender) cacheKey(uid, sid int64, n int) string {
	return fmt.Sprintf("rec:g%d:%d:%d:%d", r.generation.Load(), uid, sid, n)
}

// cacheGet 读取缓存的结果；缓存故障按未命中处理，不影响请求。
func (r *Recommender) cacheGet(ctx context.Context, key string) ([]int64, bool) {
	if r.Cache == nil {
		return nil, false
	}
	raw, err := r.Cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (r *Recommender) cacheSet(ctx context.Context, key string, ids []int64) {
	if r.Cache == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	_ = r.Cache.Set(ctx, key, raw, r.CacheTTL)
}

// Generation 返回当前刷新代次（观测/调试用）。
func (r *Recommender) Generation() int64 { return r.generation.Load() }

// coerceID 把请求层传入的 ID 字符串转为整数。
func coerceID(field, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			fmt.Sprintf("service: %s is not a valid integer", field))
	}
	return id, nil
}
