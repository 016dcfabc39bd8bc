// Package config 负责加载和管理客户端与开发后端的配置。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，由 Init 填充。
var Conf Config

// Config 与 configs/config.yaml 的结构对应。
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Log       LogConfig       `mapstructure:"log"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

// BackendConfig 描述助手后端的地址和请求超时。
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig 控制会话持久化方式。
type SessionConfig struct {
	Store       string        `mapstructure:"store"` // memory | sqlite | redis
	SQLitePath  string        `mapstructure:"sqlite_path"`
	LogoutDelay time.Duration `mapstructure:"logout_delay"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// KafkaConfig 存储会话事件发布相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DevServerConfig 是本地开发后端的配置。
type DevServerConfig struct {
	Port             string          `mapstructure:"port"`
	Mode             string          `mapstructure:"mode"`
	JWTSecret        string          `mapstructure:"jwt_secret"`
	TokenExpireHours int             `mapstructure:"token_expire_hours"`
	DocumentsDir     string          `mapstructure:"documents_dir"`
	Users            []DevUserConfig `mapstructure:"users"`
}

// DevUserConfig 描述开发后端中的一个演示用户。
type DevUserConfig struct {
	Username  string  `mapstructure:"username"`
	Password  string  `mapstructure:"password"`
	AccountID string  `mapstructure:"account_id"`
	Balance   float64 `mapstructure:"balance"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://127.0.0.1:8000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("session.store", "sqlite")
	v.SetDefault("session.sqlite_path", ".cfs/session.db")
	v.SetDefault("session.logout_delay", 2*time.Second)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.key_prefix", "cfs:session:")
	v.SetDefault("kafka.topic", "cfs-session-events")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("devserver.port", "8000")
	v.SetDefault("devserver.mode", "debug")
	v.SetDefault("devserver.token_expire_hours", 8)
	v.SetDefault("devserver.documents_dir", "Account_docs")
}

// Load 读取配置文件并解析为 Config。
// configPath 为空或文件不存在时只使用默认值和 CFS_ 前缀的环境变量。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	return cfg, nil
}

// Init 加载配置到全局变量 Conf，失败时 panic（与服务入口的用法一致）。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
