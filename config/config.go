// Package config loads the bot configuration from a YAML file.
//
// Values can be overridden by environment variables, which are also read
// from a .env file next to the configuration file:
//
//	BEANCOUNT_BOT_AUTH_TOKEN  bot.auth_token
//	BEANCOUNT_BOT_LEDGER      transaction.beancount_file
//	BEANCOUNT_BOT_LISTEN      bot.listen
//
// Relative file paths are resolved against the directory of the
// configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-bot/dispatcher"
	"github.com/robinvdvleuten/beancount-bot/formatter"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "beancount_bot.yml"

// Environment variables that override the file.
const (
	EnvAuthToken = "BEANCOUNT_BOT_AUTH_TOKEN"
	EnvLedger    = "BEANCOUNT_BOT_LEDGER"
	EnvListen    = "BEANCOUNT_BOT_LISTEN"
)

// Config is the complete bot configuration.
type Config struct {
	Log         LogConfig               `yaml:"log"`
	Bot         BotConfig               `yaml:"bot"`
	Session     SessionConfig           `yaml:"session"`
	Transaction TransactionConfig       `yaml:"transaction"`
	Dispatchers []dispatcher.Definition `yaml:"dispatchers"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zerolog level name. Defaults to info.
	Level  string `yaml:"level"`
	// Format is "console", "json" or empty to pick by terminal.
	Format string `yaml:"format"`
}

// BotConfig configures the transport.
type BotConfig struct {
	AuthToken string `yaml:"auth_token"`
	Listen    string `yaml:"listen"`
}

// SessionConfig configures per-user session storage.
type SessionConfig struct {
	File string `yaml:"file"`
}

// TransactionConfig configures the ledger.
type TransactionConfig struct {
	BeancountFile  string   `yaml:"beancount_file"`
	Tags           []string `yaml:"tags"`
	CurrencyColumn int      `yaml:"currency_column"`
	// TombstoneFile persists removed handles. Without it they are only
	// remembered until the process exits.
	TombstoneFile  string   `yaml:"tombstone_file"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info"},
		Bot:     BotConfig{Listen: "127.0.0.1:8080"},
		Session: SessionConfig{File: "session.db"},
		Transaction: TransactionConfig{
			CurrencyColumn: formatter.DefaultCurrencyColumn,
		},
	}
}

// Load reads the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Path = path

	env, err := readEnv(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(env)
	cfg.resolvePaths()

	return cfg, nil
}

// readEnv returns the variables of the .env file at path merged with the
// process environment, which takes precedence. A missing file is ignored.
func readEnv(path string) (map[string]string, error) {
	env := make(map[string]string)
	if _, err := os.Stat(path); err == nil {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		env = values
	}
	for _, key := range []string{EnvAuthToken, EnvLedger, EnvListen} {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = value
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) {
	if v := env[EnvAuthToken]; v != "" {
		c.Bot.AuthToken = v
	}
	if v := env[EnvLedger]; v != "" {
		c.Transaction.BeancountFile = v
	}
	if v := env[EnvListen]; v != "" {
		c.Bot.Listen = v
	}
}

func (c *Config) resolvePaths() {
	dir := filepath.Dir(c.Path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Transaction.BeancountFile = resolve(c.Transaction.BeancountFile)
	c.Transaction.TombstoneFile = resolve(c.Transaction.TombstoneFile)
	c.Session.File = resolve(c.Session.File)
}

// Validate reports every missing or invalid setting.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateLedger is Validate without the transport settings, for commands
// that only touch the ledger.
func (c *Config) ValidateLedger() error {
	return c.validate(false)
}

func (c *Config) validate(transport bool) error {
	var problems []string
	if c.Transaction.BeancountFile == "" {
		problems = append(problems, "transaction.beancount_file is required")
	}
	if transport && c.Bot.AuthToken == "" {
		problems = append(problems, "bot.auth_token is required")
	}
	if len(c.Dispatchers) == 0 {
		problems = append(problems, "at least one dispatcher is required")
	}
	if c.Transaction.CurrencyColumn < 0 {
		problems = append(problems, "transaction.currency_column must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be console or json, not %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LogLevel returns the configured zerolog level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	if c.Log.Level == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return level, nil
}

// Registry builds the configured dispatchers.
func (c *Config) Registry(opts ...dispatcher.Option) (*dispatcher.Registry, error) {
	return dispatcher.NewRegistry(c.Dispatchers, opts...)
}

// Formatter returns the formatter matching the transaction settings.
func (c *Config) Formatter() *formatter.Formatter {
	if c.Transaction.CurrencyColumn == 0 {
		return formatter.Default
	}
	return formatter.New(formatter.WithCurrencyColumn(c.Transaction.CurrencyColumn))
}
