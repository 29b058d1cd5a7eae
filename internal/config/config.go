package config

import (
	"embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kncci/jiinue-dashboard/internal/participant"
)

//go:embed default.yaml
var defaultYAML embed.FS

// Config is the full runtime configuration. Embedded defaults are overlaid by
// an optional YAML file (CONFIG_PATH) and then by individual env vars.
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Sheet     SheetConfig         `yaml:"sheet"`
	Rules     RulesConfig         `yaml:"rules"`
	Columns   participant.Columns `yaml:"columns"`
	Operators []Operator          `yaml:"operators"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type SheetConfig struct {
	URL             string `yaml:"url"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type RulesConfig struct {
	YouthMinAge int      `yaml:"youth_min_age"`
	YouthMaxAge int      `yaml:"youth_max_age"`
	TruthValues []string `yaml:"truth_values"`
}

// Operator is one login account. PasswordHash is a bcrypt hash; plaintext
// passwords never appear in config.
type Operator struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

// Load builds the configuration. path may be empty; env vars win last.
func Load(path string) (*Config, error) {
	raw, err := defaultYAML.ReadFile("default.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SHEET_URL"); v != "" {
		cfg.Sheet.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Sheet.CacheTTLSeconds = n
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.Server.CORSOrigins = origins
		}
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Sheet.URL) == "" {
		return fmt.Errorf("sheet.url is required")
	}
	if c.Sheet.CacheTTLSeconds <= 0 {
		return fmt.Errorf("sheet.cache_ttl_seconds must be positive")
	}
	if c.Rules.YouthMinAge > c.Rules.YouthMaxAge {
		return fmt.Errorf("rules: youth_min_age %d exceeds youth_max_age %d", c.Rules.YouthMinAge, c.Rules.YouthMaxAge)
	}
	return nil
}

// CacheTTL returns the staleness window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Sheet.CacheTTLSeconds) * time.Second
}

// ParticipantRules converts the config section to domain rules.
func (c *Config) ParticipantRules() participant.Rules {
	rules := participant.Rules{
		YouthMinAge: c.Rules.YouthMinAge,
		YouthMaxAge: c.Rules.YouthMaxAge,
		TruthValues: c.Rules.TruthValues,
	}
	if len(rules.TruthValues) == 0 {
		rules.TruthValues = participant.DefaultRules().TruthValues
	}
	return rules
}
