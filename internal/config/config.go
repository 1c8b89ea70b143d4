package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/spf13/viper"
)

const (
	configDirName  = ".voicepool"
	configName     = "config"
	configType     = "toml"
	envPrefix      = "VP"
	mainSessionEnv = "TOKEN"
	botSessionEnv  = "TOKEN_BOT_"

	DriverTOML   = "toml"
	DriverSQLite = "sqlite"

	SecretsAuto = "auto"
	SecretsPass = "pass"
	SecretsFile = "file"
)

type Config struct {
	Pool     PoolConfig      `mapstructure:"pool"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Dedup    DedupConfig     `mapstructure:"dedup"`
	Store    StoreConfig     `mapstructure:"store"`
	Gateway  GatewayConfig   `mapstructure:"gateway"`
	Commands CommandsConfig  `mapstructure:"commands"`
	HTTP     HTTPConfig      `mapstructure:"http"`
	Log      LogConfig       `mapstructure:"log"`
	Secrets  SecretsConfig   `mapstructure:"secrets"`
	Sessions []SessionConfig `mapstructure:"sessions"`

	// File is the config file actually read, empty when running on defaults.
	File string `mapstructure:"-"`
}

type PoolConfig struct {
	KillOnRateLimit bool          `mapstructure:"kill_on_rate_limit"`
	GraceDelay      time.Duration `mapstructure:"grace_delay"`
	// TerminatePID is signalled on a coordinated restart; 0 picks
	// automatically between the container init process and self.
	TerminatePID int `mapstructure:"terminate_pid"`
}

type CacheConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type DedupConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type GatewayConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type CommandsConfig struct {
	DefaultPrefix string                 `mapstructure:"default_prefix"`
	GlobalPrefix  bool                   `mapstructure:"global_prefix"`
	Log           bool                   `mapstructure:"log"`
	Routes        map[string]RouteConfig `mapstructure:"routes"`
}

type RouteConfig struct {
	OnlyAmongConnected     bool `mapstructure:"only_among_connected"`
	RequireExistingSession bool `mapstructure:"require_existing_session"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecretsConfig struct {
	// Backend selects where token refs are read from and written to:
	// auto (pass, then files under Dir), pass or file.
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

type SessionConfig struct {
	Name     string `mapstructure:"name"`
	Token    string `mapstructure:"token"`
	TokenRef string `mapstructure:"token_ref"`
	Public   bool   `mapstructure:"public"`
	Prefix   string `mapstructure:"prefix"`
}

// Dir returns ~/.voicepool, or a relative fallback when HOME is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("pool.kill_on_rate_limit", false)
	v.SetDefault("pool.grace_delay", "5s")
	v.SetDefault("pool.terminate_pid", 0)
	v.SetDefault("cache.cleanup_interval", "5m")
	v.SetDefault("dedup.timeout", "10s")
	v.SetDefault("store.driver", DriverTOML)
	v.SetDefault("store.path", "")
	v.SetDefault("gateway.url", "wss://gateway.example.invalid/ws")
	v.SetDefault("gateway.handshake_timeout", "15s")
	v.SetDefault("commands.default_prefix", "!!")
	v.SetDefault("commands.global_prefix", true)
	v.SetDefault("commands.log", false)
	v.SetDefault("http.addr", "127.0.0.1:8079")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("secrets.backend", SecretsAuto)
	v.SetDefault("secrets.dir", filepath.Join(Dir(), "secrets"))
}

// Load reads the config file (if any), environment overrides and the
// TOKEN/TOKEN_BOT_* session layout, then validates the result. A config
// file set with v.SetConfigFile is used as is; otherwise ~/.voicepool is
// searched.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	SetDefaults(v)
	if v.ConfigFileUsed() == "" {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(Dir())
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	cfg.Sessions = append(cfg.Sessions, SessionsFromEnv(os.Environ())...)
	cfg.applySessionPrefixes()
	cfg.resolveStorePath()

	if errs := cfg.Validate(); len(errs) > 0 {
		return Config{}, errs
	}

	return cfg, nil
}

// SessionsFromEnv builds sessions from TOKEN (the main session) and
// TOKEN_BOT_<NAME> variables. TOKEN_BOT_* entries are ordered by name so the
// registration order does not depend on the environment's ordering.
func SessionsFromEnv(environ []string) []SessionConfig {
	var primary *SessionConfig
	named := make([]SessionConfig, 0)

	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}

		switch {
		case key == mainSessionEnv:
			primary = &SessionConfig{Name: "Main", Token: value}
		case strings.HasPrefix(strings.ToUpper(key), botSessionEnv):
			name := key[len(botSessionEnv):]
			if name == "" {
				name = fmt.Sprintf("Bot_%d", len(named)+1)
			}
			named = append(named, SessionConfig{Name: name, Token: value})
		}
	}

	sort.SliceStable(named, func(i, j int) bool { return named[i].Name < named[j].Name })

	sessions := make([]SessionConfig, 0, len(named)+1)
	if primary != nil {
		sessions = append(sessions, *primary)
	}
	return append(sessions, named...)
}

// applySessionPrefixes splits inline "<token> <prefix>" values. With a
// global prefix any trailing word is dropped instead.
func (c *Config) applySessionPrefixes() {
	for i := range c.Sessions {
		fields := strings.Fields(c.Sessions[i].Token)
		if len(fields) == 0 {
			c.Sessions[i].Token = ""
			continue
		}

		c.Sessions[i].Token = fields[0]
		if !c.Commands.GlobalPrefix && len(fields) == 2 && c.Sessions[i].Prefix == "" {
			c.Sessions[i].Prefix = fields[1]
		}
	}
}

func (c *Config) resolveStorePath() {
	if c.Store.Path != "" {
		return
	}

	switch c.Store.Driver {
	case DriverSQLite:
		c.Store.Path = filepath.Join(Dir(), "store.db")
	default:
		c.Store.Path = filepath.Join(Dir(), "store.toml")
	}
}

// LoadFile loads configuration from an explicit file path.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	return Load(v)
}

// RouteOptions converts the per-command routing table for the dispatcher.
func (c CommandsConfig) RouteOptions() map[string]domain.RouteOptions {
	routes := make(map[string]domain.RouteOptions, len(c.Routes))
	for name, route := range c.Routes {
		routes[strings.ToLower(name)] = domain.RouteOptions{
			OnlyAmongConnected:     route.OnlyAmongConnected,
			RequireExistingSession: route.RequireExistingSession,
		}
	}
	return routes
}
