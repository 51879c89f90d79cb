package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/edgekit/rak811"
	"github.com/edgekit/rak811/internal/cliconfig"
)

var (
	config     *cliconfig.Config
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "rak811",
	Short:         "Command line interface for RAK811 LoRa modules (V2 firmware)",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = cliconfig.LoadConfig(
			cliconfig.WithDefaults(),
			cliconfig.WithFile(configPath),
			cliconfig.WithEnv(),
			cliconfig.WithFlags(cmd.Flags()),
		)
		if err != nil {
			return err
		}
		setupLogging(config.LogLevel)
		return nil
	},
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	})))
}

func openDevice() (*rak811.Device, error) {
	return rak811.New(rak811.Config{
		Dialer: rak811.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		},
		ResponseTimeout: config.ResponseTimeout,
		EventTimeout:    config.EventTimeout,
	})
}

// withDevice opens the module, runs fn and closes the module again.
func withDevice(fn func(*rak811.Device) error) error {
	device, err := openDevice()
	if err != nil {
		return err
	}
	defer device.Close()
	return fn(device)
}

func main() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to yaml configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	flags.String("serial-port", "/dev/serial0", "Serial port to connect to the module")
	flags.Int("baud-rate", 115200, "Baud rate for serial communication")
	flags.Duration("response-timeout", 5*time.Second, "Maximum wait for a command response")
	flags.Duration("event-timeout", 5*time.Minute, "Maximum wait for radio events")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
