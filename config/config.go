// Package config 提供推荐协调器的配置加载与装配。
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config 是推荐系统的顶层配置（支持 YAML/JSON）。
type Config struct {
	Recommender RecommenderConfig `yaml:"recommender" json:"recommender"`
}

// RecommenderConfig 是协调器配置。
type RecommenderConfig struct {
	// Mode 取 collaborative / content-based / hybrid
	Mode string `yaml:"mode" json:"mode"`

	Collaborative CollaborativeConfig `yaml:"collaborative" json:"collaborative"`

	// Filters 是合并后处理链路中的过滤器配置。
	Filters []FilterConfig `yaml:"filters" json:"filters"`
}

// CollaborativeConfig 是协同引擎配置。
type CollaborativeConfig struct {
	Method string `yaml:"method" json:"method"` // user_based / item_based
	Metric string `yaml:"metric" json:"metric"` // cosine / pearson

	// SimilarityThreshold 相似度剪枝阈值；0 取默认值 0.1，负值关闭剪枝。
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
}

// FilterConfig 是单个过滤器的配置。
type FilterConfig struct {
	Type   string         `yaml:"type" json:"type"`     // blacklist / expr / rated
	Config map[string]any `yaml:"config" json:"config"` // 过滤器特定配置
}

// LoadFromYAML 从 YAML 文件加载配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}
