// Package store 只包含实现，接口定义在 core 包。
// 使用 core.DocumentStore 与 core.CacheStore 接口。
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/pkg/conv"
)

// MemoryStore 是内存实现的 DocumentStore，用于测试/开发/原型。
// 文档按 AppID 升序维护，保证 FindBatch 的分页窗口稳定。
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]core.Document
}

// NewMemoryStore 创建空的内存文档存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]core.Document)}
}

func (m *MemoryStore) Name() string { return "memory" }

// Insert 向集合追加文档并维持 AppID 升序（测试/种子数据用）。
func (m *MemoryStore) Insert(collection string, docs ...core.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections[collection] = append(m.collections[collection], docs...)
	sort.SliceStable(m.collections[collection], func(i, j int) bool {
		a, _ := conv.ToInt64(m.collections[collection][i]["AppID"])
		b, _ := conv.ToInt64(m.collections[collection][j]["AppID"])
		return a < b
	})
}

func (m *MemoryStore) FindAll(ctx context.Context, collection string) ([]core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.collections[collection]
	out := make([]core.Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (m *MemoryStore) FindBatch(ctx context.Context, collection string, offset, limit int64) ([]core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.collections[collection]
	if offset >= int64(len(docs)) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(docs)) {
		end = int64(len(docs))
	}
	out := make([]core.Document, end-offset)
	copy(out, docs[offset:end])
	return out, nil
}

func (m *MemoryStore) FindByIDs(ctx context.Context, collection string, ids []int64) ([]core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []core.Document
	for _, doc := range m.collections[collection] {
		if id, ok := conv.ToInt64(doc["AppID"]); ok {
			if _, hit := want[id]; hit {
				out = append(out, doc)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) FindOne(ctx context.Context, collection string, key core.Document) (core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.collections[collection] {
		if matchKey(doc, key) {
			return doc, nil
		}
	}
	return nil, core.ErrStoreNotFound
}

func (m *MemoryStore) FindWhereFieldGT(ctx context.Context, collection, fieldPath string, threshold float64, limit int64) ([]core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Document
	for _, doc := range m.collections[collection] {
		v, ok := lookupField(doc, fieldPath)
		if !ok || v <= threshold {
			continue
		}
		out = append(out, doc)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// matchKey 检查文档是否匹配 key 的所有字段。数值字段做归一化比较
// （文档里的 int 与查询里的 int64 视为相等）。
func matchKey(doc, key core.Document) bool {
	for field, want := range key {
		got, ok := doc[field]
		if !ok {
			return false
		}
		if wantN, okW := conv.ToInt64(want); okW {
			gotN, okG := conv.ToInt64(got)
			if !okG || gotN != wantN {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

// lookupField 按点分路径（如 "genre.action"）取出数值字段。
func lookupField(doc core.Document, fieldPath string) (float64, bool) {
	parts := strings.Split(fieldPath, ".")
	var cur any = map[string]any(doc)
	for _, part := range parts {
		switch m := cur.(type) {
		case map[string]any:
			next, ok := m[part]
			if !ok {
				return 0, false
			}
			cur = next
		case map[string]float64:
			v, ok := m[part]
			if !ok {
				return 0, false
			}
			cur = v
		default:
			return 0, false
		}
	}
	return conv.ToFloat64(cur)
}

var _ core.DocumentStore = (*MemoryStore)(nil)
