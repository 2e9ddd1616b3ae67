// Package config loads the checker configuration from flags, environment,
// an optional config file and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CHECKER_CHAIN_RPC_URL.
const EnvPrefix = "CHECKER"

// Config contains the checker configuration.
type Config struct {
	Subgraph   SubgraphConfig `mapstructure:"subgraph"`
	Checker    CheckerConfig  `mapstructure:"checker"`
	Chain      ChainConfig    `mapstructure:"chain"`
	HTTP       HTTPConfig     `mapstructure:"http"`
	Log        LogConfig      `mapstructure:"log"`
	Postgres   StoreConfig    `mapstructure:"postgres"`
	Clickhouse StoreConfig    `mapstructure:"clickhouse"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Watch      WatchConfig    `mapstructure:"watch"`
}

// SubgraphConfig configures the indexer client.
type SubgraphConfig struct {
	URL        string        `mapstructure:"url"`
	Author     string        `mapstructure:"author"`
	PageSize   int           `mapstructure:"page_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// CheckerConfig configures batch assembly.
type CheckerConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// ChainConfig selects the JSON-RPC endpoints. Networks maps a connection
// selector (name or chain id) to an extra RPC endpoint.
type ChainConfig struct {
	RPCURL   string            `mapstructure:"rpc_url"`
	WSURL    string            `mapstructure:"ws_url"`
	Networks map[string]string `mapstructure:"networks"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig holds an optional database DSN. Empty means in-memory.
type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig configures decision publishing. Empty URL disables it.
type RedisConfig struct {
	URL   string `mapstructure:"url"`
	Topic string `mapstructure:"topic"`
}

// WatchConfig is the task evaluated on new heads.
type WatchConfig struct {
	EveryBlocks      uint64 `mapstructure:"every_blocks"`
	SchedulerType    string `mapstructure:"scheduler_type"`
	SchedulerAddress string `mapstructure:"scheduler_address"`
	SubgraphName     string `mapstructure:"subgraph_name"`
	Network          string `mapstructure:"network"`
}

// SetDefaults registers every key with its default so environment
// variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("subgraph.url", "https://api.thegraph.com/subgraphs/name")
	v.SetDefault("subgraph.author", "opiumprotocol")
	v.SetDefault("subgraph.page_size", 100)
	v.SetDefault("subgraph.timeout", 30*time.Second)
	v.SetDefault("subgraph.max_retries", 0)

	v.SetDefault("checker.batch_size", 5)

	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.ws_url", "")
	v.SetDefault("chain.networks", map[string]string{})

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("clickhouse.dsn", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.topic", "checker-decisions")

	v.SetDefault("watch.every_blocks", 1)
	v.SetDefault("watch.scheduler_type", "")
	v.SetDefault("watch.scheduler_address", "")
	v.SetDefault("watch.subgraph_name", "")
	v.SetDefault("watch.network", "")
}

// NewViper creates a viper instance reading defaults, CHECKER_* environment
// variables and, when set, cfgFile. envFile is loaded into the process
// environment first; a missing envFile is not an error and variables already
// set win.
func NewViper(cfgFile, envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Subgraph.URL == "" {
		return fmt.Errorf("subgraph.url is required")
	}
	if c.Subgraph.PageSize <= 0 {
		return fmt.Errorf("subgraph.page_size must be positive, got %d", c.Subgraph.PageSize)
	}
	if c.Subgraph.MaxRetries < 0 {
		return fmt.Errorf("subgraph.max_retries must not be negative, got %d", c.Subgraph.MaxRetries)
	}
	if c.Checker.BatchSize <= 0 {
		return fmt.Errorf("checker.batch_size must be positive, got %d", c.Checker.BatchSize)
	}
	return nil
}

// RequireChain checks the settings of commands that read contracts.
func (c *Config) RequireChain() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	return nil
}

// RequireWatch checks the settings of the watch command.
func (c *Config) RequireWatch() error {
	if err := c.RequireChain(); err != nil {
		return err
	}
	switch {
	case c.Chain.WSURL == "":
		return fmt.Errorf("chain.ws_url is required")
	case c.Watch.EveryBlocks == 0:
		return fmt.Errorf("watch.every_blocks must be positive")
	case c.Watch.SchedulerType == "":
		return fmt.Errorf("watch.scheduler_type is required")
	case c.Watch.SchedulerAddress == "":
		return fmt.Errorf("watch.scheduler_address is required")
	case c.Watch.SubgraphName == "":
		return fmt.Errorf("watch.subgraph_name is required")
	}
	return nil
}
