package apriori

import (
	"fmt"

	"github.com/rushteam/bookrec/core"
)

// Config 是挖掘与推荐的阈值配置，构造 Recommender 时传入，之后不可变。
type Config struct {
	MinSupport    float64  `json:"minsup" yaml:"minsup"`
	MinConfidence float64  `json:"minconf" yaml:"minconf"`
	MinLift       float64  `json:"minlift" yaml:"minlift"`
	TopK          int      `json:"top_k" yaml:"top_k"`
	AllowedGenres []string `json:"allowed_genres,omitempty" yaml:"allowed_genres"`
}

// DefaultConfig 返回默认配置：minsup=0.2, minconf=0.6, minlift=1.2, topK=10，默认题材词表。
func DefaultConfig() Config {
	return Config{
		MinSupport:    core.DefaultMinSupport,
		MinConfidence: core.DefaultMinConfidence,
		MinLift:       core.DefaultMinLift,
		TopK:          core.DefaultTopK,
		AllowedGenres: core.AllowedGenresOrDefault(nil),
	}
}

// Validate 检查阈值范围。
func (c Config) Validate() error {
	switch {
	case c.MinSupport < 0 || c.MinSupport > 1:
		return core.WrapDomainError(core.ErrInvalidConfig, fmt.Errorf("minsup %v out of [0,1]", c.MinSupport))
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return core.WrapDomainError(core.ErrInvalidConfig, fmt.Errorf("minconf %v out of [0,1]", c.MinConfidence))
	case c.MinLift < 0:
		return core.WrapDomainError(core.ErrInvalidConfig, fmt.Errorf("minlift %v must be >= 0", c.MinLift))
	case c.TopK < 0:
		return core.WrapDomainError(core.ErrInvalidConfig, fmt.Errorf("top_k %d must be >= 0", c.TopK))
	}
	return nil
}
