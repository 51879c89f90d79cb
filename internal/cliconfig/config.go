// Package cliconfig loads the layered configuration shared by the
// rak811 and rak811v3 binaries: defaults, then an optional yaml file,
// then environment variables, then command-line flags.
package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the CLI configuration
type Config struct {
	// SerialPort is the path to the module's serial port (e.g. "/dev/serial0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the module (e.g. 115200)
	BaudRate int
	// ResponseTimeout is the maximum wait for a command response
	ResponseTimeout time.Duration
	// EventTimeout is the maximum wait for asynchronous events
	EventTimeout time.Duration
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
}

// fileConfig mirrors Config in the yaml configuration file. Durations
// are strings in time.ParseDuration format.
type fileConfig struct {
	SerialPort      string `yaml:"serial_port"`
	BaudRate        int    `yaml:"baud_rate"`
	ResponseTimeout string `yaml:"response_timeout"`
	EventTimeout    string `yaml:"event_timeout"`
	LogLevel        string `yaml:"log_level"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/serial0"
		c.BaudRate = 115200
		c.ResponseTimeout = 5 * time.Second
		c.EventTimeout = 5 * time.Minute
		c.LogLevel = "info"
		return nil
	}
}

// WithFile loads configuration from a yaml file. An empty path is a
// no-op, so the option can be applied unconditionally.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		var file fileConfig
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}

		if file.SerialPort != "" {
			c.SerialPort = file.SerialPort
		}
		if file.BaudRate != 0 {
			c.BaudRate = file.BaudRate
		}
		if file.ResponseTimeout != "" {
			d, err := time.ParseDuration(file.ResponseTimeout)
			if err != nil {
				return fmt.Errorf("parse response_timeout: %w", err)
			}
			c.ResponseTimeout = d
		}
		if file.EventTimeout != "" {
			d, err := time.ParseDuration(file.EventTimeout)
			if err != nil {
				return fmt.Errorf("parse event_timeout: %w", err)
			}
			c.EventTimeout = d
		}
		if file.LogLevel != "" {
			c.LogLevel = file.LogLevel
		}

		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if port := os.Getenv("RAK811_SERIAL_PORT"); port != "" {
			c.SerialPort = port
		}

		if baud := os.Getenv("RAK811_BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if timeout := os.Getenv("RAK811_RESPONSE_TIMEOUT"); timeout != "" {
			if d, err := time.ParseDuration(timeout); err == nil {
				c.ResponseTimeout = d
			}
		}

		if timeout := os.Getenv("RAK811_EVENT_TIMEOUT"); timeout != "" {
			if d, err := time.ParseDuration(timeout); err == nil {
				c.EventTimeout = d
			}
		}

		if level := os.Getenv("RAK811_LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "response-timeout":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.ResponseTimeout = d
				}
			case "event-timeout":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.EventTimeout = d
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			}
		})
		return nil
	}
}
