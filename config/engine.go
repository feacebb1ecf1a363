package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/history"
	"github.com/rushteam/bookrec/pkg/validate"
)

// EnvPrefix 是环境变量覆盖的前缀：BOOKREC_MINING_MINSUP -> mining.minsup。
const EnvPrefix = "BOOKREC_"

// EngineConfig 是引擎的全部运行配置。
// 加载顺序（后者覆盖前者）：默认值 -> YAML 文件 -> BOOKREC_* 环境变量。
type EngineConfig struct {
	Mining   MiningConfig   `koanf:"mining"`
	History  HistoryConfig  `koanf:"history"`
	Store    StoreConfig    `koanf:"store"`
	Feast    FeastConfig    `koanf:"feast"`
	Log      LogConfig      `koanf:"log"`
	Pipeline PipelineConfig `koanf:"pipeline"`
}

type MiningConfig struct {
	MinSupport    float64  `koanf:"minsup" validate:"gte=0,lte=1"`
	MinConfidence float64  `koanf:"minconf" validate:"gte=0,lte=1"`
	MinLift       float64  `koanf:"minlift" validate:"gte=0"`
	TopK          int      `koanf:"top_k" validate:"gte=0"`
	AllowedGenres []string `koanf:"allowed_genres" validate:"omitempty,dive,required"`
}

// Apriori 转为挖掘配置。
func (m MiningConfig) Apriori() apriori.Config {
	return apriori.Config{
		MinSupport:    m.MinSupport,
		MinConfidence: m.MinConfidence,
		MinLift:       m.MinLift,
		TopK:          m.TopK,
		AllowedGenres: core.AllowedGenresOrDefault(m.AllowedGenres),
	}
}

type HistoryConfig struct {
	Mode          string        `koanf:"mode" validate:"oneof=event session"`
	SessionWindow time.Duration `koanf:"session_window" validate:"gte=0"`
	Strict        bool          `koanf:"strict"`
	ProfileSize   int           `koanf:"profile_size" validate:"gte=0"`
}

// NormalizerOptions 转为 history.Normalizer 的选项。
func (h HistoryConfig) NormalizerOptions() []history.Option {
	mode := history.ModeEvent
	if h.Mode == string(history.ModeSession) {
		mode = history.ModeSession
	}
	opts := []history.Option{history.WithMode(mode), history.WithStrict(h.Strict)}
	if h.SessionWindow > 0 {
		opts = append(opts, history.WithSessionWindow(h.SessionWindow))
	}
	return opts
}

type StoreConfig struct {
	Backend       string `koanf:"backend" validate:"oneof=memory redis"`
	RedisAddr     string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	RuleTTL       int    `koanf:"rule_ttl" validate:"gte=0"` // 秒
}

// FeastConfig 为空 Endpoint 时不启用远端画像。
type FeastConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Project  string        `koanf:"project" validate:"required_with=Endpoint"`
	Feature  string        `koanf:"feature"`
	Timeout  time.Duration `koanf:"timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
}

type PipelineConfig struct {
	Path string `koanf:"path"`
}

// DefaultEngineConfig 返回默认配置。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Mining: MiningConfig{
			MinSupport:    core.DefaultMinSupport,
			MinConfidence: core.DefaultMinConfidence,
			MinLift:       core.DefaultMinLift,
			TopK:          core.DefaultTopK,
			AllowedGenres: core.AllowedGenresOrDefault(nil),
		},
		History: HistoryConfig{
			Mode:          string(history.ModeEvent),
			SessionWindow: history.DefaultSessionWindow,
			ProfileSize:   history.DefaultProfileSize,
		},
		Store: StoreConfig{
			Backend: "memory",
			RuleTTL: 3600,
		},
		Feast: FeastConfig{
			Timeout: 2 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// 环境变量只能给出字符串，这些路径按逗号切分为列表
var sliceConfigPaths = []string{
	"mining.allowed_genres",
}

// LoadEngineConfig 加载引擎配置。path 为空时只使用默认值与环境变量。
func LoadEngineConfig(path string) (*EngineConfig, error) {
	k := koanf.New(".")

	defaults := DefaultEngineConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &EngineConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 做标签校验，再用挖掘配置自身的范围检查兜底。
func (c *EngineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return core.WrapDomainError(core.ErrInvalidConfig, err)
	}
	return c.Mining.Apriori().Validate()
}

// envTransform: BOOKREC_STORE_REDIS_ADDR -> store.redis_addr
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
