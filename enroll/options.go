package enroll

import (
	"github.com/kavutra/steamguard/clock"
	"github.com/kavutra/steamguard/internal/xlog"
)

// Option configures a Driver.
type Option func(*Driver)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithLogger overrides the debug logger.
func WithLogger(l *xlog.Logger) Option {
	return func(d *Driver) { d.log = l }
}
