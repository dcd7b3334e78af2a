package ranking

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Config holds the ranking weights and decay parameter.
type Config struct {
	// HalfLifeDays is the recency decay half-life. Must be positive.
	HalfLifeDays float64 `json:"halfLifeDays"`
	Weights      Weights `json:"weights"`
}

// Weights are the per-signal multipliers.
type Weights struct {
	Stars        float64 `json:"stars"`
	Recency      float64 `json:"recency"`
	Contributors float64 `json:"contributors"`
	Downloads    float64 `json:"downloads"`
}

// DefaultConfig is the v1 ranking proposal: recency weighted twice as heavily
// as stars, contributor and download terms off.
func DefaultConfig() Config {
	return Config{
		HalfLifeDays: 90,
		Weights: Weights{
			Stars:   1,
			Recency: 2,
		},
	}
}

// LoadConfig reads a ranking config file. The file may contain comments and
// trailing commas (JWCC); it is standardized to plain JSON before decoding.
// A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read ranking config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse ranking config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode ranking config %s: %w", path, err)
	}

	if cfg.HalfLifeDays <= 0 {
		return Config{}, fmt.Errorf("halfLifeDays must be positive, got %v", cfg.HalfLifeDays)
	}
	return cfg, nil
}
