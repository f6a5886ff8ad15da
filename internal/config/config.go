// Package config loads server configuration from a YAML file, HEXEMPIRE_*
// environment variables and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/talgya/hexempire/internal/game"
)

// EnvPrefix is prepended to every environment override, e.g.
// HEXEMPIRE_SERVER_PORT for server.port.
const EnvPrefix = "HEXEMPIRE"

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Game     GameConfig     `mapstructure:"game"`
	Limits   LimitsConfig   `mapstructure:"limits"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path     string `mapstructure:"path"`     // SQLite file; empty disables persistence
	Compress bool   `mapstructure:"compress"` // lz4 snapshot compression
}

type LogConfig struct {
	Level  string        `mapstructure:"level"`  // debug, info, warn, error
	Format string        `mapstructure:"format"` // json or console
	Output string        `mapstructure:"output"` // stdout, file or both
	File   LogFileConfig `mapstructure:"file"`
}

type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxAge     int    `mapstructure:"max_age"`  // days
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// GameConfig holds the defaults for newly created games.
type GameConfig struct {
	MapWidth             int           `mapstructure:"map_width"`
	MapHeight            int           `mapstructure:"map_height"`
	MaxPlayers           int           `mapstructure:"max_players"`
	MinCityDistance      int           `mapstructure:"min_city_distance"`
	StartMinDistance     int           `mapstructure:"start_min_distance"`
	ScienceVictoryTechs  int           `mapstructure:"science_victory_techs"`
	CultureVictoryPoints int           `mapstructure:"culture_victory_points"`
	MaxTurns             int           `mapstructure:"max_turns"`
	Simultaneous         bool          `mapstructure:"simultaneous"`
	TurnTimeout          time.Duration `mapstructure:"turn_timeout"`
	StartingGold         int           `mapstructure:"starting_gold"`
}

// Settings converts the configured defaults into core game settings.
func (g GameConfig) Settings() game.Settings {
	s := game.DefaultSettings(g.MapWidth, g.MapHeight)
	if g.MinCityDistance > 0 {
		s.MinCityDistance = g.MinCityDistance
	}
	if g.StartMinDistance > 0 {
		s.StartMinDistance = g.StartMinDistance
	}
	if g.ScienceVictoryTechs > 0 {
		s.ScienceVictoryTechs = g.ScienceVictoryTechs
	}
	if g.CultureVictoryPoints > 0 {
		s.CultureVictoryPoints = g.CultureVictoryPoints
	}
	s.MaxTurns = g.MaxTurns
	s.Simultaneous = g.Simultaneous
	s.TurnTimeout = g.TurnTimeout
	s.StartingGold = g.StartingGold
	return s
}

type LimitsConfig struct {
	ActionsPerSecond float64 `mapstructure:"actions_per_second"`
	ActionBurst      int     `mapstructure:"action_burst"`
	MaxGames         int     `mapstructure:"max_games"`
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Game.MapWidth < 8 || c.Game.MapHeight < 8 {
		errs = append(errs, fmt.Errorf("game map %dx%d is smaller than 8x8", c.Game.MapWidth, c.Game.MapHeight))
	}
	if c.Game.MaxPlayers < 1 {
		errs = append(errs, errors.New("game.max_players must be at least 1"))
	}
	if c.Game.TurnTimeout < 0 {
		errs = append(errs, errors.New("game.turn_timeout must not be negative"))
	}
	if c.Limits.ActionsPerSecond <= 0 || c.Limits.ActionBurst < 1 {
		errs = append(errs, errors.New("limits.actions_per_second and limits.action_burst must be positive"))
	}
	switch c.Log.Output {
	case "stdout", "file", "both":
	default:
		errs = append(errs, fmt.Errorf("log.output %q", c.Log.Output))
	}
	return errors.Join(errs...)
}

// Loader owns the viper instance and the current configuration. Get is safe
// for concurrent use while Watch reloads in the background.
type Loader struct {
	v   *viper.Viper
	mu  sync.RWMutex
	cfg *Config
}

// Load reads configuration. An empty path searches ./config and . for
// config.yaml; a missing file there is not an error.
func Load(path string) (*Loader, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Loader{v: v, cfg: cfg}, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Get returns the current configuration.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// File is the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the file on change and calls onChange with the new
// configuration. A reload that fails to decode or validate keeps the old one
// and reports the error through onError.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := decode(l.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		l.mu.Lock()
		l.cfg = cfg
		l.mu.Unlock()
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.path", "data/hexempire.db")
	v.SetDefault("database.compress", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "hexserver.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("game.map_width", 40)
	v.SetDefault("game.map_height", 30)
	v.SetDefault("game.max_players", 8)
	v.SetDefault("game.min_city_distance", 3)
	v.SetDefault("game.start_min_distance", 6)
	v.SetDefault("game.science_victory_techs", len(game.Techs))
	v.SetDefault("game.culture_victory_points", 1000)
	v.SetDefault("game.max_turns", 0)
	v.SetDefault("game.simultaneous", false)
	v.SetDefault("game.turn_timeout", "0s")
	v.SetDefault("game.starting_gold", 20)

	v.SetDefault("limits.actions_per_second", 5.0)
	v.SetDefault("limits.action_burst", 10)
	v.SetDefault("limits.max_games", 64)
}
