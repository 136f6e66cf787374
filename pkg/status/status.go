// Package status carries coarse device state to an indicator such as an LED.
package status

import "log/slog"

type Status int

const (
	NotReady Status = iota
	Enumerating
	Ready
	Error
	Wink
)

func (s Status) String() string {
	switch s {
	case NotReady:
		return "not-ready"
	case Enumerating:
		return "enumerating"
	case Ready:
		return "ready"
	case Error:
		return "error"
	case Wink:
		return "wink"
	default:
		return "unknown"
	}
}

// Indicator receives fire-and-forget status signals. Implementations must not block.
type Indicator interface {
	Indicate(s Status)
}

// IndicatorFunc adapts a function to Indicator.
type IndicatorFunc func(s Status)

func (f IndicatorFunc) Indicate(s Status) {
	f(s)
}

// Nop discards every signal.
type Nop struct{}

func (Nop) Indicate(Status) {}

// Logger reports signals as log records.
type Logger struct {
	Logger *slog.Logger
}

func (l Logger) Indicate(s Status) {
	l.Logger.Info("status", "indicator", s.String())
}
