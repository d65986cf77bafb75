package config

import "time"

// Config is the root configuration for a dashboard client instance.
type Config struct {
	Robot     RobotConfig     `yaml:"robot"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Audit     AuditConfig     `yaml:"audit"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

// RobotConfig identifies the robot controller.
type RobotConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DashboardConfig holds connection engine timeouts.
type DashboardConfig struct {
	ReconnectBudget time.Duration `yaml:"reconnect_budget"`
	IOTimeout       time.Duration `yaml:"io_timeout"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	ReplyTimeout    time.Duration `yaml:"reply_timeout"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
}

// AuditConfig holds the command audit trail settings.
type AuditConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Postgres      DBConfig      `yaml:"postgres"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MonitorConfig holds the health/observation endpoint settings.
type MonitorConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Port         int           `yaml:"port"`
	PollInterval time.Duration `yaml:"poll_interval"`
}
