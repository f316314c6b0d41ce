package core

import "context"

// Document 是文档存储返回的无模式文档（schemaless map）。
// 上层解析时必须容忍字段缺失/多余：单条损坏文档跳过，不中断整批。
type Document = map[string]any

// DocumentStore 是文档存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 本库只消费查询面；写入/重试/退避是存储客户端自己的职责
//
// 使用场景：
//   - 目录加载：分批拉取物品标签文档（FindBatch）
//   - 评分/问卷读取：按键取单个文档（FindOne）
//   - 问卷增强：按标签权重阈值检索（FindWhereFieldGT）
//
// 实现：
//   - store.MemoryStore 实现此接口（测试/开发/原型）
//   - store.MongoStore 实现此接口（生产环境）
type DocumentStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// FindAll 返回集合中的全部文档
	FindAll(ctx context.Context, collection string) ([]Document, error)

	// FindBatch 按稳定顺序（AppID 升序）返回集合的一个分页窗口。
	// 返回的文档数少于 limit 表示已到末尾。
	FindBatch(ctx context.Context, collection string, offset, limit int64) ([]Document, error)

	// FindByIDs 返回 AppID 在 ids 集合中的文档
	FindByIDs(ctx context.Context, collection string, ids []int64) ([]Document, error)

	// FindOne 按键匹配返回单个文档；不存在时返回 ErrStoreNotFound
	FindOne(ctx context.Context, collection string, key Document) (Document, error)

	// FindWhereFieldGT 返回 fieldPath（点分路径，如 "genre.action"）对应数值
	// 大于 threshold 的文档，最多 limit 条
	FindWhereFieldGT(ctx context.Context, collection, fieldPath string, threshold float64, limit int64) ([]Document, error)

	// Close 关闭连接/释放资源
	Close() error
}

// CacheStore 是结果缓存的领域接口（KV 语义）。
//
// 推荐结果缓存按 (user, station, n, generation) 组合成 key，
// 值为序列化后的物品 ID 列表，过期由 TTL 控制。
//
// 实现：
//   - store.MemoryCache 实现此接口
//   - store.RedisCache 实现此接口
type CacheStore interface {
	// Name 返回缓存后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值；不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒（可选）
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}
