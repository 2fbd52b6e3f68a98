package quarry

import (
	"fmt"
	"os"
	"time"

	"github.com/quarrydb/quarry/dialect/sql"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "250ms" or "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("quarry: config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the file-based client configuration. All fields besides Driver
// and DSN are optional.
type Config struct {
	// Driver is the database/sql driver name, e.g. "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	// DSN is the data source name passed to the driver.
	DSN string `yaml:"dsn"`

	// Connection pool settings, passed through to database/sql.
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time"`

	// Debug logs every statement before execution.
	Debug bool `yaml:"debug"`
	// SlowQueryThreshold enables timing and slow-query logging when > 0.
	SlowQueryThreshold Duration `yaml:"slow_query_threshold"`
	// StatementCacheSize bounds the rendered-statement cache.
	// Zero keeps the default, a negative value disables caching.
	StatementCacheSize int `yaml:"statement_cache_size"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quarry: reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("quarry: parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Driver == "" {
		return fmt.Errorf("quarry: config: driver is required")
	}
	if cfg.DSN == "" {
		return fmt.Errorf("quarry: config: dsn is required")
	}
	return nil
}

// OpenConfig opens a client from a Config, applying pool settings to the
// underlying database/sql handle. Extra options are applied after the ones
// derived from the config, so they take precedence.
func OpenConfig(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	drv, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db := drv.DB()
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Std())
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime.Std())
	}
	all := make([]Option, 0, len(opts)+3)
	if cfg.Debug {
		all = append(all, WithDebug())
	}
	if cfg.SlowQueryThreshold > 0 {
		all = append(all, WithSlowQueryLog(cfg.SlowQueryThreshold.Std()))
	}
	switch {
	case cfg.StatementCacheSize > 0:
		all = append(all, WithStatementCache(cfg.StatementCacheSize))
	case cfg.StatementCacheSize < 0:
		all = append(all, WithStatementCache(0))
	}
	all = append(all, opts...)
	return NewClient(drv, all...), nil
}
