package quarry

import (
	"time"

	"github.com/quarrydb/quarry/dialect"
	"github.com/quarrydb/quarry/dialect/sql"
)

// config holds the options collected during client construction.
type config struct {
	log           dialect.Logger
	debug         bool
	slowThreshold time.Duration
	cacheSize     int
	format        sql.Options
}

// Option configures a Client.
type Option func(*config)

// WithLogger sets the logger used for debug and slow-query records.
// Defaults to an adapter over slog.Default().
func WithLogger(l dialect.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithDebug logs every statement before execution at debug level.
func WithDebug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// WithSlowQueryLog enables statement timing and logs statements that exceed
// the given threshold at warn level.
func WithSlowQueryLog(threshold time.Duration) Option {
	return func(c *config) {
		c.slowThreshold = threshold
	}
}

// WithStatementCache bounds the rendered-statement cache. A size of 0
// disables caching.
func WithStatementCache(size int) Option {
	return func(c *config) {
		c.cacheSize = size
	}
}

// WithFormatOptions overrides the statement rendering options, e.g. to
// produce indented SQL in logs.
func WithFormatOptions(opts sql.Options) Option {
	return func(c *config) {
		c.format = opts
	}
}

// Client is the entry point for executing statement trees against a
// database. It owns the driver, the dialect feature set used for rendering,
// and a bounded cache of rendered statements.
type Client struct {
	driver   dialect.Driver
	features sql.Features
	log      dialect.Logger
	stats    *sql.QueryStats
	stmts    *stmtCache
	format   sql.Options
}

// Open opens a database connection for the given driver name and DSN and
// returns a client for it. The driver name selects both the database/sql
// driver and the rendering dialect.
func Open(driverName, dsn string, opts ...Option) (*Client, error) {
	drv, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return NewClient(drv, opts...), nil
}

// NewClient returns a client over an existing driver. The rendering dialect
// is resolved from the driver's Dialect method, falling back to the base
// ANSI feature set for unknown names.
func NewClient(drv dialect.Driver, opts ...Option) *Client {
	cfg := config{
		log:       dialect.SlogLogger(nil),
		cacheSize: defaultStmtCacheSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	var stats *sql.QueryStats
	if cfg.slowThreshold > 0 {
		if sd, ok := drv.(*sql.Driver); ok {
			statsDrv := sql.NewStatsDriver(sd,
				sql.WithSlowThreshold(cfg.slowThreshold),
				sql.WithSlowQueryLog(cfg.log),
			)
			stats = statsDrv.QueryStats()
			drv = statsDrv
		}
	}
	if cfg.debug {
		drv = dialect.Debug(drv, cfg.log)
	}
	return &Client{
		driver:   drv,
		features: sql.FeaturesFor(drv.Dialect()),
		log:      cfg.log,
		stats:    stats,
		stmts:    newStmtCache(cfg.cacheSize),
		format:   cfg.format,
	}
}

// Driver returns the underlying driver.
func (c *Client) Driver() dialect.Driver {
	return c.driver
}

// Dialect returns the dialect name of the underlying driver.
func (c *Client) Dialect() string {
	return c.driver.Dialect()
}

// Features returns the dialect feature set used for rendering.
func (c *Client) Features() sql.Features {
	return c.features
}

// Stats returns a snapshot of query statistics. The second return value is
// false when timing was not enabled via WithSlowQueryLog.
func (c *Client) Stats() (sql.StatsSnapshot, bool) {
	if c.stats == nil {
		return sql.StatsSnapshot{}, false
	}
	return c.stats.Stats(), true
}

// Close closes the underlying driver connection.
func (c *Client) Close() error {
	return c.driver.Close()
}
