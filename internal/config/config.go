// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Agent    AgentConfig    `mapstructure:"agent"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据存储的配置。
type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// SQLiteConfig 存储本地 SQLite 数据库文件的配置。
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig 存储 Redis 的配置。仅当 session.store 为 "redis" 时使用。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig 存储会话令牌相关的配置。
type SessionConfig struct {
	// Store 取值 "memory" 或 "redis"。
	Store string `mapstructure:"store"`
	// TTLHours 是会话令牌的有效期（小时），默认 168（7 天）。
	TTLHours int `mapstructure:"ttl_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。Enabled 为 false 时不发送任何事件。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// AgentConfig 存储 AI Agent（外部大模型与工具编排）相关的配置。
type AgentConfig struct {
	// APIKey 只从环境变量 NEUROSYNC_AGENT_API_KEY（或 OPENAI_API_KEY）注入。
	APIKey     string                `mapstructure:"-"`
	BaseURL    string                `mapstructure:"base_url"`
	Model      string                `mapstructure:"model"`
	Generation AgentGenerationConfig `mapstructure:"generation"`
	Tools      AgentToolsConfig      `mapstructure:"tools"`
	// MinCallIntervalSeconds 是两次外部 API 调用之间的最小间隔（秒）。
	MinCallIntervalSeconds int `mapstructure:"min_call_interval_seconds"`
}

// AgentGenerationConfig 配置生成相关参数（可选）。
type AgentGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// AgentToolsConfig 控制各个工具的开关。
type AgentToolsConfig struct {
	WebSearch  bool `mapstructure:"web_search"`
	Wikipedia  bool `mapstructure:"wikipedia"`
	Calculator bool `mapstructure:"calculator"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// Agent 的 API key 强制从环境变量读取；缺失时返回错误，调用方应快速失败。
func Init(configPath string) error {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}

	// API key 不允许写进配置文件，只从环境变量注入
	_ = viper.BindEnv("agent_api_key", "NEUROSYNC_AGENT_API_KEY", "OPENAI_API_KEY")
	Conf.Agent.APIKey = viper.GetString("agent_api_key")
	if Conf.Agent.APIKey == "" {
		return fmt.Errorf("缺少 Agent API key: 请设置环境变量 NEUROSYNC_AGENT_API_KEY")
	}

	if Conf.Session.TTLHours <= 0 {
		Conf.Session.TTLHours = 168
	}
	if Conf.Session.Store == "" {
		Conf.Session.Store = "memory"
	}
	return nil
}
