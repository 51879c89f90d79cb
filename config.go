package rak811

import (
	"time"

	"github.com/edgekit/rak811/at"
)

const (
	// DefaultBaudRate is the factory UART speed of the module.
	DefaultBaudRate = 115200

	// DefaultResponseTimeout bounds the wait for a command response. The
	// module typically responds in less than 1.5 seconds.
	DefaultResponseTimeout = 5 * time.Second

	// DefaultEventTimeout bounds the wait for asynchronous events. Event
	// latency depends strongly on the duty cycle: when sending often at
	// a high spreading factor the module delays transmissions to respect
	// it. Five minutes is ample in normal operation.
	DefaultEventTimeout = 5 * time.Minute

	// DefaultSettleWindow is how long the reader waits for a further
	// line before considering a burst complete.
	DefaultSettleWindow = 100 * time.Millisecond
)

// Config holds the driver configuration.
type Config struct {
	// Dialer opens the transport. Required.
	Dialer Dialer
	// Markers selects the firmware dialect. Defaults to at.DialectV2().
	Markers at.Markers
	// KeepUntagged retains lines that carry no marker. Needed for
	// dialects whose informational command output has no per-line tag.
	KeepUntagged bool
	// ResponseTimeout is the default wait for a command response.
	ResponseTimeout time.Duration
	// EventTimeout is the default wait for asynchronous events.
	EventTimeout time.Duration
	// SettleWindow is the burst coalescing window of the reader.
	SettleWindow time.Duration
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Markers == (at.Markers{}) {
		c.Markers = at.DialectV2()
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = DefaultResponseTimeout
	}
	if c.EventTimeout == 0 {
		c.EventTimeout = DefaultEventTimeout
	}
	if c.SettleWindow == 0 {
		c.SettleWindow = DefaultSettleWindow
	}
}

// ConfigBuilder assembles a Config fluently.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder preloaded with defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the transport dialer.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

// WithMarkers selects the firmware dialect markers.
func (b *ConfigBuilder) WithMarkers(m at.Markers) *ConfigBuilder {
	b.config.Markers = m
	return b
}

// WithKeepUntagged retains untagged lines in the pending buffer.
func (b *ConfigBuilder) WithKeepUntagged(keep bool) *ConfigBuilder {
	b.config.KeepUntagged = keep
	return b
}

// WithResponseTimeout sets the default command response wait.
func (b *ConfigBuilder) WithResponseTimeout(d time.Duration) *ConfigBuilder {
	b.config.ResponseTimeout = d
	return b
}

// WithEventTimeout sets the default event wait.
func (b *ConfigBuilder) WithEventTimeout(d time.Duration) *ConfigBuilder {
	b.config.EventTimeout = d
	return b
}

// WithSettleWindow sets the reader's burst coalescing window.
func (b *ConfigBuilder) WithSettleWindow(d time.Duration) *ConfigBuilder {
	b.config.SettleWindow = d
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	config.setDefaults()
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
