package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/arcadelab/gamerec/core"
)

// MongoStore 是 MongoDB 实现的 DocumentStore，生产环境使用。
// 重试/退避由驱动与部署侧负责，这里的查询失败原样向上传播。
type MongoStore struct {
	client *mongo.Client
	db     string
}

// NewMongoStore 连接 MongoDB 并做一次 ping 验证。
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(100).
		SetMinPoolSize(10))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	return &MongoStore{client: client, db: db}, nil
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.client.Database(s.db).Collection(name)
}

func (s *MongoStore) FindAll(ctx context.Context, collection string) ([]core.Document, error) {
	cur, err := s.coll(collection).Find(ctx, bson.M{}, findOptions())
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur)
}

func (s *MongoStore) FindBatch(ctx context.Context, collection string, offset, limit int64) ([]core.Document, error) {
	cur, err := s.coll(collection).Find(ctx, bson.M{}, findOptions().SetSkip(offset).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur)
}

func (s *MongoStore) FindByIDs(ctx context.Context, collection string, ids []int64) ([]core.Document, error) {
	cur, err := s.coll(collection).Find(ctx, bson.M{"AppID": bson.M{"$in": ids}}, findOptions())
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur)
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, key core.Document) (core.Document, error) {
	filter := bson.M{}
	for k, v := range key {
		filter[k] = v
	}
	var raw bson.M
	err := s.coll(collection).FindOne(ctx, filter).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return normalizeDocument(raw), nil
}

func (s *MongoStore) FindWhereFieldGT(ctx context.Context, collection, fieldPath string, threshold float64, limit int64) ([]core.Document, error) {
	opts := findOptions()
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.coll(collection).Find(ctx, bson.M{fieldPath: bson.M{"$gt": threshold}}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur)
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// findOptions 统一查询选项：剔除 _id，按 AppID 升序保证分页窗口稳定。
func findOptions() *options.FindOptions {
	return options.Find().
		SetProjection(bson.M{"_id": 0}).
		SetSort(bson.D{{Key: "AppID", Value: 1}})
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]core.Document, error) {
	defer cur.Close(ctx)

	var out []core.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			// 单条解码失败跳过，不中断整批
			continue
		}
		out = append(out, normalizeDocument(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeDocument 把 bson.M/bson.A 递归转为纯 map[string]any / []any，
// 上层解析只面对标准容器类型。
func normalizeDocument(raw bson.M) core.Document {
	out := make(core.Document, len(raw))
	for k, v := range raw {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalizeDocument(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.A:
		arr := make([]any, len(t))
		for i, e := range t {
			arr[i] = normalizeValue(e)
		}
		return arr
	default:
		return v
	}
}

var _ core.DocumentStore = (*MongoStore)(nil)
