package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kasuganosora/knapsackga/pkg/knapsack"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "KNAPSACK_CONFIG"

// Config 应用程序配置
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Log     LogConfig     `json:"log" yaml:"log"`
	HTTPAPI HTTPAPIConfig `json:"http_api" yaml:"http_api"`
	MCP     MCPConfig     `json:"mcp" yaml:"mcp"`
	Batch   BatchConfig   `json:"batch" yaml:"batch"`
}

// EngineConfig 遗传算法参数
type EngineConfig struct {
	PopulationSize   int     `json:"population_size" yaml:"population_size" validate:"min=2"`
	MaxGenerations   int     `json:"max_generations" yaml:"max_generations" validate:"min=1"`
	MutationRate     float64 `json:"mutation_rate" yaml:"mutation_rate" validate:"gte=0,lte=1"`
	DegeneratePolicy string  `json:"degenerate_policy" yaml:"degenerate_policy" validate:"oneof=uniform fail"`
	Seed             int64   `json:"seed" yaml:"seed"`
}

// CatalogConfig 物品目录来源
type CatalogConfig struct {
	// Source is one of reference, json, xlsx, sql.
	Source   string  `json:"source" yaml:"source" validate:"oneof=reference json xlsx sql"`
	Path     string  `json:"path" yaml:"path"`
	Sheet    string  `json:"sheet" yaml:"sheet"`
	Capacity float64 `json:"capacity" yaml:"capacity" validate:"gte=0"`

	Driver       string `json:"driver" yaml:"driver" validate:"omitempty,oneof=sqlite mysql postgres"`
	DSN          string `json:"dsn" yaml:"dsn"`
	Table        string `json:"table" yaml:"table"`
	ValueColumn  string `json:"value_column" yaml:"value_column"`
	WeightColumn string `json:"weight_column" yaml:"weight_column"`
	OrderColumn  string `json:"order_column" yaml:"order_column"`
	// Retries repeats a failed SQL load this many times with backoff.
	Retries int `json:"retries" yaml:"retries" validate:"gte=0,lte=10"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"` // json or text
}

// HTTPAPIConfig HTTP API 配置
type HTTPAPIConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	Host           string   `json:"host" yaml:"host"`
	Port           int      `json:"port" yaml:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	Metrics        bool     `json:"metrics" yaml:"metrics"`
}

// MCPConfig MCP 服务配置
type MCPConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port" validate:"min=1,max=65535"`
	Transport string `json:"transport" yaml:"transport" validate:"oneof=http stdio"`
}

// BatchConfig 批量求解的 worker pool 配置
type BatchConfig struct {
	Workers   int `json:"workers" yaml:"workers" validate:"min=1"`
	QueueSize int `json:"queue_size" yaml:"queue_size" validate:"min=1"`
	MaxRuns   int `json:"max_runs" yaml:"max_runs" validate:"min=1"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			PopulationSize:   10,
			MaxGenerations:   50,
			MutationRate:     0.3,
			DegeneratePolicy: string(genetic.DegenerateUniform),
		},
		Catalog: CatalogConfig{
			Source:       "reference",
			Capacity:     knapsack.DefaultCapacity,
			Table:        "items",
			ValueColumn:  "value",
			WeightColumn: "weight",
			Retries:      2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTPAPI: HTTPAPIConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"*"},
			Metrics:        true,
		},
		MCP: MCPConfig{
			Host:      "0.0.0.0",
			Port:      8081,
			Transport: "http",
		},
		Batch: BatchConfig{
			Workers:   4,
			QueueSize: 64,
			MaxRuns:   32,
		},
	}
}

// LoadConfig 从文件加载配置. Files ending in .yaml or .yml are YAML, all
// others JSON. Keys missing from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	// 如果没有指定配置文件，使用默认配置
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// 检查配置文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置
	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 验证配置
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault 尝试从常见位置加载配置文件
func LoadConfigOrDefault() *Config {
	// 尝试的配置文件路径
	possiblePaths := []string{
		"knapsack.yaml",
		"knapsack.json",
		"./config/knapsack.yaml",
		"./config/knapsack.json",
		"/etc/knapsackga/knapsack.yaml",
	}

	// 尝试从环境变量获取配置文件路径
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if config, err := LoadConfig(envPath); err == nil {
			return config
		}
	}

	// 尝试从常见位置加载
	for _, path := range possiblePaths {
		if absPath, err := filepath.Abs(path); err == nil {
			if config, err := LoadConfig(absPath); err == nil {
				return config
			}
		}
	}

	// 使用默认配置
	return DefaultConfig()
}

var validate = validator.New()

// Validate 验证配置
func (c *Config) Validate() error {
	return validateConfig(c)
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("%w: %v", genetic.ErrInvalidConfig, err)
	}

	switch config.Catalog.Source {
	case "json", "xlsx":
		if config.Catalog.Path == "" {
			return fmt.Errorf("%w: catalog source %s needs a path", genetic.ErrInvalidConfig, config.Catalog.Source)
		}
	case "sql":
		if config.Catalog.Driver == "" || config.Catalog.DSN == "" {
			return fmt.Errorf("%w: catalog source sql needs a driver and a dsn", genetic.ErrInvalidConfig)
		}
	}

	return nil
}

// Genetic converts the engine section into an engine configuration.
func (e EngineConfig) Genetic() *genetic.GeneticAlgorithmConfig {
	return &genetic.GeneticAlgorithmConfig{
		PopulationSize:   e.PopulationSize,
		MaxGenerations:   e.MaxGenerations,
		MutationRate:     e.MutationRate,
		DegeneratePolicy: genetic.DegeneratePolicy(e.DegeneratePolicy),
		Seed:             e.Seed,
	}
}

// GetListenAddress 返回 HTTP API 监听地址
func (c *Config) GetListenAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTPAPI.Host, c.HTTPAPI.Port)
}

// GetMCPAddress 返回 MCP 监听地址
func (c *Config) GetMCPAddress() string {
	return fmt.Sprintf("%s:%d", c.MCP.Host, c.MCP.Port)
}
