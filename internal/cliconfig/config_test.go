package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := LoadConfig(WithDefaults())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.SerialPort != "/dev/serial0" {
			t.Errorf("unexpected serial port %q", config.SerialPort)
		}
		if config.BaudRate != 115200 {
			t.Errorf("unexpected baud rate %d", config.BaudRate)
		}
		if config.ResponseTimeout != 5*time.Second {
			t.Errorf("unexpected response timeout %v", config.ResponseTimeout)
		}
		if config.EventTimeout != 5*time.Minute {
			t.Errorf("unexpected event timeout %v", config.EventTimeout)
		}
		if config.LogLevel != "info" {
			t.Errorf("unexpected log level %q", config.LogLevel)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		content := "serial_port: /dev/ttyUSB1\nbaud_rate: 9600\nresponse_timeout: 2s\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config file: %v", err)
		}

		config, err := LoadConfig(WithDefaults(), WithFile(path))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.SerialPort != "/dev/ttyUSB1" {
			t.Errorf("unexpected serial port %q", config.SerialPort)
		}
		if config.BaudRate != 9600 {
			t.Errorf("unexpected baud rate %d", config.BaudRate)
		}
		if config.ResponseTimeout != 2*time.Second {
			t.Errorf("unexpected response timeout %v", config.ResponseTimeout)
		}
		if config.LogLevel != "info" {
			t.Errorf("file without log_level should keep the default, got %q", config.LogLevel)
		}
	})

	t.Run("empty file path is a no-op", func(t *testing.T) {
		config, err := LoadConfig(WithDefaults(), WithFile(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.SerialPort != "/dev/serial0" {
			t.Errorf("unexpected serial port %q", config.SerialPort)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadConfig(WithDefaults(), WithFile("/does/not/exist.yml"))
		if err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("RAK811_SERIAL_PORT", "/dev/ttyAMA0")
		t.Setenv("RAK811_EVENT_TIMEOUT", "30s")

		config, err := LoadConfig(WithDefaults(), WithEnv())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.SerialPort != "/dev/ttyAMA0" {
			t.Errorf("unexpected serial port %q", config.SerialPort)
		}
		if config.EventTimeout != 30*time.Second {
			t.Errorf("unexpected event timeout %v", config.EventTimeout)
		}
	})

	t.Run("changed flags win", func(t *testing.T) {
		fSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fSet.String("serial-port", "/dev/serial0", "")
		fSet.Int("baud-rate", 115200, "")
		fSet.String("log-level", "info", "")
		if err := fSet.Parse([]string{"--serial-port", "/dev/ttyUSB2", "--log-level", "debug"}); err != nil {
			t.Fatalf("parse flags: %v", err)
		}

		config, err := LoadConfig(WithDefaults(), WithFlags(fSet))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.SerialPort != "/dev/ttyUSB2" {
			t.Errorf("unexpected serial port %q", config.SerialPort)
		}
		if config.LogLevel != "debug" {
			t.Errorf("unexpected log level %q", config.LogLevel)
		}
		// Unchanged flags must not override other layers.
		if config.BaudRate != 115200 {
			t.Errorf("unexpected baud rate %d", config.BaudRate)
		}
	})
}
