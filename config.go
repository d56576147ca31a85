package showcase

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/tfkr-ae/showcase/db"
	"github.com/tfkr-ae/showcase/ratelimit"
	"github.com/tfkr-ae/showcase/storage"
	"github.com/tfkr-ae/showcase/validate"
)

// CooldownConfig holds the minimum interval between two mutations of the same class.
type CooldownConfig struct {
	Comment time.Duration `mapstructure:"comment"`
	Rating  time.Duration `mapstructure:"rating"`
	Project time.Duration `mapstructure:"project"`
}

// Config is the showcase configuration, read from config.yaml in the config directory.
type Config struct {
	viper                *viper.Viper
	ConfigDir            string         `mapstructure:"-"`                      // Directory holding config.yaml and the database
	StoragePrefix        string         `mapstructure:"storage_prefix"`         // Prefix of every physical storage key
	DatabaseFile         string         `mapstructure:"database_file"`          // SQLite file, relative to ConfigDir
	QuotaBytes           int64          `mapstructure:"quota_bytes"`            // Storage quota, <= 0 disables it
	CompressThreshold    int            `mapstructure:"compress_threshold"`     // Values above this size are compressed at rest
	LogCapacity          int            `mapstructure:"log_capacity"`           // Activity log entries kept
	Cooldowns            CooldownConfig `mapstructure:"cooldowns"`              // Rate limits per action class
	MaxTitleLength       int            `mapstructure:"max_title_length"`       // Project title limit, in characters
	MaxDescriptionLength int            `mapstructure:"max_description_length"` // Project description limit, in characters
	MaxCommentLength     int            `mapstructure:"max_comment_length"`     // Comment limit, in characters
	MaxNicknameLength    int            `mapstructure:"max_nickname_length"`    // Nickname limit, in characters
	SeedExamples         bool           `mapstructure:"seed_examples"`          // Seed the built-in example projects on first start
	Timezone             string         `mapstructure:"timezone"`               // Viewer timezone for comment grouping
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage_prefix", storage.DefaultPrefix)
	v.SetDefault("database_file", "showcase.db")
	v.SetDefault("quota_bytes", db.DefaultQuota)
	v.SetDefault("compress_threshold", db.DefaultCompressThreshold)
	v.SetDefault("log_capacity", 1000)
	v.SetDefault("cooldowns.comment", ratelimit.DefaultCooldowns[ratelimit.ActionComment].String())
	v.SetDefault("cooldowns.rating", ratelimit.DefaultCooldowns[ratelimit.ActionRating].String())
	v.SetDefault("cooldowns.project", ratelimit.DefaultCooldowns[ratelimit.ActionProject].String())

	limits := validate.DefaultLimits()
	v.SetDefault("max_title_length", limits.Title)
	v.SetDefault("max_description_length", limits.Description)
	v.SetDefault("max_comment_length", limits.Comment)
	v.SetDefault("max_nickname_length", limits.Nickname)
	v.SetDefault("seed_examples", true)
	v.SetDefault("timezone", "Local")
}

// DefaultConfig returns the configuration used when no config directory is given.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{viper: v}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadConfig reads config.yaml from dir, writing it with the defaults when it does not exist.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file : %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return nil, fmt.Errorf("writing config file : %w", err)
		}
	}
	return decodeConfig(v, dir)
}

func decodeConfig(v *viper.Viper, dir string) (*Config, error) {
	cfg := &Config{viper: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	cfg.ConfigDir = dir
	return cfg, nil
}

// DatabasePath returns the location of the SQLite file, or "" without a config directory.
func (cfg *Config) DatabasePath() string {
	if cfg.ConfigDir == "" {
		return ""
	}
	if filepath.IsAbs(cfg.DatabaseFile) {
		return cfg.DatabaseFile
	}
	return filepath.Join(cfg.ConfigDir, cfg.DatabaseFile)
}

// Cooldown returns the configured cooldown of action.
func (cfg *Config) Cooldown(action ratelimit.Action) time.Duration {
	switch action {
	case ratelimit.ActionComment:
		return cfg.Cooldowns.Comment
	case ratelimit.ActionRating:
		return cfg.Cooldowns.Rating
	case ratelimit.ActionProject:
		return cfg.Cooldowns.Project
	default:
		return ratelimit.DefaultCooldowns[action]
	}
}

// Limits returns the configured input limits.
func (cfg *Config) Limits() validate.Limits {
	limits := validate.DefaultLimits()
	limits.Title = cfg.MaxTitleLength
	limits.Description = cfg.MaxDescriptionLength
	limits.Comment = cfg.MaxCommentLength
	limits.Nickname = cfg.MaxNicknameLength
	return limits
}

// Location returns the viewer timezone. "Local" and "" mean the process timezone.
func (cfg *Config) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", cfg.Timezone, err)
	}
	return loc, nil
}

// Watch calls fn with the reloaded configuration every time config.yaml changes on disk.
// A change that fails to decode is passed to onError and leaves the old configuration in place.
func (cfg *Config) Watch(fn func(*Config), onError func(error)) error {
	if cfg.ConfigDir == "" {
		return errors.New("config has no directory to watch")
	}
	v := cfg.viper
	dir := cfg.ConfigDir
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		reloaded, err := decodeConfig(v, dir)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reloading %s: %w", e.Name, err))
			}
			return
		}
		fn(reloaded)
	})
	v.WatchConfig()
	return nil
}
