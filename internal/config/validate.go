package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Robot.Host == "" {
		return errors.New("robot.host is required")
	}
	if c.Robot.Port < 1 || c.Robot.Port > 65535 {
		return fmt.Errorf("robot.port must be between 1 and 65535, got %d", c.Robot.Port)
	}

	if c.Dashboard.ReconnectBudget <= 0 {
		return errors.New("dashboard.reconnect_budget must be positive")
	}
	if c.Dashboard.IOTimeout <= 0 {
		return errors.New("dashboard.io_timeout must be positive")
	}
	if c.Dashboard.ReadBufferSize < 1 {
		return errors.New("dashboard.read_buffer_size must be >= 1")
	}

	if c.Audit.Enabled {
		if err := c.Audit.Postgres.validate("audit.postgres"); err != nil {
			return err
		}
		if c.Audit.BatchSize < 1 {
			return errors.New("audit.batch_size must be >= 1")
		}
		if c.Audit.BufferSize < 1 {
			return errors.New("audit.buffer_size must be >= 1")
		}
	}

	if c.Monitor.Enabled {
		if c.Monitor.Port < 1 || c.Monitor.Port > 65535 {
			return fmt.Errorf("monitor.port must be between 1 and 65535, got %d", c.Monitor.Port)
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
