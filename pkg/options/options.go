package options

import (
	"context"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/go-ctap/authenticator/pkg/status"
)

const (
	// DefaultQueueCapacity bounds each packet queue of a session.
	DefaultQueueCapacity = 5

	// DefaultTickInterval is five 1ms USB frames.
	DefaultTickInterval = 5 * time.Millisecond

	// DefaultIdleTicks abandons a stalled reassembly after about three seconds
	// at DefaultTickInterval.
	DefaultIdleTicks = 600
)

type Options struct {
	Logger        *slog.Logger
	EncMode       cbor.EncMode
	Context       context.Context
	Indicator     status.Indicator
	QueueCapacity int
	TickInterval  time.Duration
	IdleTicks     int
	DeviceVersion [3]byte
	Wink          bool
	PipePath      string
	Paths         []string
	UseProxy      bool
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithEncMode(encMode cbor.EncMode) Option {
	return func(opts *Options) {
		opts.EncMode = encMode
	}
}

func WithContext(ctx context.Context) Option {
	return func(opts *Options) {
		opts.Context = ctx
	}
}

// WithIndicator sets where status changes and winks are signalled.
func WithIndicator(indicator status.Indicator) Option {
	return func(opts *Options) {
		opts.Indicator = indicator
	}
}

func WithQueueCapacity(capacity int) Option {
	return func(opts *Options) {
		opts.QueueCapacity = capacity
	}
}

func WithTickInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.TickInterval = interval
	}
}

// WithIdleTicks sets how many ticks without a packet a partially reassembled
// message survives. Zero disables the timeout.
func WithIdleTicks(ticks int) Option {
	return func(opts *Options) {
		opts.IdleTicks = ticks
	}
}

func WithDeviceVersion(major, minor, build byte) Option {
	return func(opts *Options) {
		opts.DeviceVersion = [3]byte{major, minor, build}
	}
}

// WithWink enables the CTAPHID_WINK command.
func WithWink() Option {
	return func(opts *Options) {
		opts.Wink = true
	}
}

func WithPipePath(path string) Option {
	return func(opts *Options) {
		opts.PipePath = path
	}
}

func WithPaths(paths ...string) Option {
	return func(opts *Options) {
		opts.Paths = paths
	}
}

// WithUseProxy makes host-side helpers talk to a hidproxy endpoint instead of real HID devices.
func WithUseProxy() Option {
	return func(opts *Options) {
		opts.UseProxy = true
	}
}

func NewOptions(opts ...Option) *Options {
	encMode, _ := cbor.CTAP2EncOptions().EncMode()
	oo := &Options{
		Logger:        slog.Default(),
		EncMode:       encMode,
		Context:       context.Background(),
		Indicator:     status.Nop{},
		QueueCapacity: DefaultQueueCapacity,
		TickInterval:  DefaultTickInterval,
		IdleTicks:     DefaultIdleTicks,
		DeviceVersion: [3]byte{0, 0, 1},
		PipePath:      DefaultPipePath,
	}

	for _, opt := range opts {
		opt(oo)
	}

	return oo
}
