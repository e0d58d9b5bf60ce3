// =============================================================================
// 📦 SpeechFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("speechflow.yaml").
//	    WithEnvPrefix("SPEECHFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是 SpeechFlow bundle 宿主侧的完整配置结构
type Config struct {
	// Bundle 描述文件位置
	Bundle BundleConfig `yaml:"bundle" env:"BUNDLE"`

	// Vendor 供应商调用配置
	Vendor VendorConfig `yaml:"vendor" env:"VENDOR"`

	// Redis 音色缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Store 本地快照存储配置
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`
}

// BundleConfig bundle 位置与加载行为
type BundleConfig struct {
	// manifest 文件路径
	Path string `yaml:"path" env:"PATH"`
	// 初始化时是否向供应商探活校验凭据
	ProbeOnInit bool `yaml:"probe_on_init" env:"PROBE_ON_INIT"`
}

// VendorConfig 供应商 HTTP 调用配置
type VendorConfig struct {
	// API Key（也可经宿主凭据表单下发）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（可选，默认官方端点）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 客户端侧限速（请求/秒，0 不限制）
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用音色缓存
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 缓存 TTL
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// StoreConfig 本地快照存储配置
type StoreConfig struct {
	// SQLite DSN，":memory:" 表示内存库
	DSN string `yaml:"dsn" env:"DSN"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
}

// DefaultConfig 返回带默认值的配置
func DefaultConfig() *Config {
	return &Config{
		Bundle: BundleConfig{
			Path: "bundle/manifest.yaml",
		},
		Vendor: VendorConfig{
			Timeout: 60 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  5 * time.Minute,
		},
		Store: StoreConfig{
			DSN: "speechflow.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "SPEECHFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量覆盖配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 按字段类型解析并写入环境变量值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		// time.Duration 支持 "30s" 形式
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// Validate 基础配置校验
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bundle.Path) == "" {
		return fmt.Errorf("bundle.path is required")
	}
	if c.Vendor.Timeout < 0 {
		return fmt.Errorf("vendor.timeout must be non-negative")
	}
	if c.Vendor.RequestsPerSecond < 0 {
		return fmt.Errorf("vendor.requests_per_second must be non-negative")
	}
	return nil
}
