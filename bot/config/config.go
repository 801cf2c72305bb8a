package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Config wraps viper and provides typed accessors. Keys follow the INI
// layout and are addressed as "section.key", e.g. "x.api_key".
type Config struct {
	v *viper.Viper
}

// envBindings maps config keys to the environment variables that override
// them. Credentials set in the environment always win over the config file,
// so secrets never need to be written to disk.
var envBindings = map[string]string{
	"x.api_key":             "X_API_KEY",
	"x.api_secret":          "X_API_SECRET",
	"x.access_token":        "X_ACCESS_TOKEN",
	"x.access_token_secret": "X_ACCESS_TOKEN_SECRET",
	"telegram.token":        "TELEGRAM_BOT_TOKEN",
	"ner.api_key":           "HUGGING_FACE_API_KEY",
	"converter.api_key":     "CONVERT_BET_API_KEY",
	"redis.password":        "REDIS_PASSWORD",
}

// Load reads an INI config file and prepares defaults. A missing file is not
// an error: the bot runs from defaults and environment credentials alone,
// falling back to simulated conversions when no API keys are present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadINI(v, path); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.log_level", "info")
	v.SetDefault("bot.log_format", "text")
	v.SetDefault("bot.log_source", false)
	v.SetDefault("bot.autostart", true)
	v.SetDefault("bot.worker_pool_size", 4)
	v.SetDefault("bot.mention_poll_seconds", 30)
	v.SetDefault("bot.dm_poll_seconds", 60)
	v.SetDefault("bot.poll_batch_size", 10)
	v.SetDefault("bot.dedup_warm_limit", 1000)
	v.SetDefault("bot.reply_rate_per_second", 1.0)
	v.SetDefault("bot.reply_rate_burst", 3)

	v.SetDefault("database.path", "flexcode.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime_sec", 3600)
	v.SetDefault("database.gorm_log_level", "warn")

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.listen", ":8080")
	v.SetDefault("api.metrics", true)

	v.SetDefault("x.enabled", true)
	v.SetDefault("x.base_url", "")

	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.api_server", "")
	v.SetDefault("telegram.debug", false)

	v.SetDefault("ner.enabled", true)
	v.SetDefault("ner.endpoint", "")
	v.SetDefault("ner.timeout_seconds", 15)

	v.SetDefault("converter.base_url", "")
	v.SetDefault("converter.simulate", false)
	v.SetDefault("converter.cache", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
}

// GetString returns a string value.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns an int value.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 returns a float64 value.
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool returns a bool value.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetIntSlice returns a comma-separated list of ints.
func (c *Config) GetIntSlice(key string) []int {
	raw := strings.TrimSpace(c.v.GetString(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func loadINI(v *viper.Viper, path string) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return err
	}

	for _, section := range cfg.Sections() {
		prefix := ""
		if name := section.Name(); name != "" && name != ini.DefaultSection {
			prefix = strings.ToLower(name) + "."
		}
		for _, key := range section.Keys() {
			fullKey := prefix + strings.ToLower(key.Name())
			if env, bound := envBindings[fullKey]; bound {
				if _, present := os.LookupEnv(env); present {
					// The environment value wins over the file.
					continue
				}
			}
			v.Set(fullKey, key.Value())
		}
	}
	return nil
}
