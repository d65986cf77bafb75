package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDashboardPort   = 29999
	DefaultReconnectBudget = 10 * time.Second
	DefaultIOTimeout       = 1 * time.Second
	DefaultSettleDelay     = 500 * time.Millisecond
	DefaultRetryDelay      = 100 * time.Millisecond
	DefaultReplyTimeout    = 1 * time.Second
	DefaultReadBufferSize  = 1024
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultBatchSize       = 100
	DefaultFlushInterval   = 1 * time.Second
	DefaultBufferSize      = 1000
	DefaultMonitorPort     = 8080
	DefaultPollInterval    = 250 * time.Millisecond
)

func (c *Config) applyDefaults() {
	// Robot defaults
	if c.Robot.Port == 0 {
		c.Robot.Port = DefaultDashboardPort
	}

	// Dashboard defaults
	if c.Dashboard.ReconnectBudget == 0 {
		c.Dashboard.ReconnectBudget = DefaultReconnectBudget
	}
	if c.Dashboard.IOTimeout == 0 {
		c.Dashboard.IOTimeout = DefaultIOTimeout
	}
	if c.Dashboard.SettleDelay == 0 {
		c.Dashboard.SettleDelay = DefaultSettleDelay
	}
	if c.Dashboard.RetryDelay == 0 {
		c.Dashboard.RetryDelay = DefaultRetryDelay
	}
	if c.Dashboard.ReplyTimeout == 0 {
		c.Dashboard.ReplyTimeout = DefaultReplyTimeout
	}
	if c.Dashboard.ReadBufferSize == 0 {
		c.Dashboard.ReadBufferSize = DefaultReadBufferSize
	}

	// Audit defaults
	applyDBDefaults(&c.Audit.Postgres)
	if c.Audit.BatchSize == 0 {
		c.Audit.BatchSize = DefaultBatchSize
	}
	if c.Audit.FlushInterval == 0 {
		c.Audit.FlushInterval = DefaultFlushInterval
	}
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = DefaultBufferSize
	}

	// Monitor defaults
	if c.Monitor.Port == 0 {
		c.Monitor.Port = DefaultMonitorPort
	}
	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = DefaultPollInterval
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
