// Package config 提供服务进程的 YAML 配置加载（支持环境变量覆盖连接串）。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是服务进程的配置结构。
type Config struct {
	Store struct {
		// MongoURI 为空时使用内存存储（开发/测试）
		MongoURI           string `yaml:"mongo_uri"`
		Database           string `yaml:"database"`
		CatalogCollection  string `yaml:"catalog_collection"`
		FeedbackCollection string `yaml:"feedback_collection"`
		QuizCollection     string `yaml:"quiz_collection"`
	} `yaml:"store"`

	Cache struct {
		Enabled    bool   `yaml:"enabled"`
		RedisAddr  string `yaml:"redis_addr"`
		RedisDB    int    `yaml:"redis_db"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Catalog struct {
		BatchSize          int64 `yaml:"batch_size"`
		MaxItems           int   `yaml:"max_items"`
		LoadTimeoutSeconds int   `yaml:"load_timeout_seconds"`
	} `yaml:"catalog"`

	Recommend struct {
		MaxRecommendations int `yaml:"max_recommendations"`
		DefaultCount       int `yaml:"default_count"`
		// ExcludeRules 是 CEL 排除规则表达式列表
		ExcludeRules []string `yaml:"exclude_rules"`
	} `yaml:"recommend"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// Default 返回内置默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Store.Database = "gamehive"
	cfg.Store.CatalogCollection = "steam_genre"
	cfg.Store.FeedbackCollection = "game_feedback"
	cfg.Store.QuizCollection = "quizResponses"
	cfg.Cache.TTLSeconds = 3600
	cfg.Catalog.BatchSize = 500
	cfg.Catalog.LoadTimeoutSeconds = 30
	cfg.Recommend.MaxRecommendations = 20
	cfg.Recommend.DefaultCount = 5
	cfg.Server.Addr = ":8080"
	return cfg
}

// Load 从 YAML 文件加载配置，未设置的字段保持默认值。
// MONGODB_URI 环境变量优先于文件中的连接串（连接串不进配置仓库）。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		cfg.Store.MongoURI = uri
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Recommend.MaxRecommendations <= 0 {
		return fmt.Errorf("config: max_recommendations must be positive")
	}
	if c.Recommend.DefaultCount <= 0 || c.Recommend.DefaultCount > c.Recommend.MaxRecommendations {
		return fmt.Errorf("config: default_count must be in (0, max_recommendations]")
	}
	if c.Catalog.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive")
	}
	return nil
}
