package inference

import "time"

// Config controls loop cadence and failure handling
type Config struct {
	// Interval between ticks; roughly one display frame
	Interval time.Duration
	// BaseBackoff is the extra delay after the first consecutive failure.
	// It doubles with every further failure up to MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// DegradedAfter consecutive failures mark the prediction as degraded
	DegradedAfter int
	// Timeout bounds each classifier call. Zero means no timeout.
	Timeout time.Duration
}

// DefaultConfig returns a loop config ticking at 60Hz
func DefaultConfig() Config {
	return Config{
		Interval:      time.Second / 60,
		BaseBackoff:   50 * time.Millisecond,
		MaxBackoff:    2 * time.Second,
		DegradedAfter: 5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = d.BaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.MaxBackoff < c.BaseBackoff {
		c.MaxBackoff = c.BaseBackoff
	}
	if c.DegradedAfter <= 0 {
		c.DegradedAfter = d.DegradedAfter
	}
	return c
}

// Delay returns how long to wait before the next tick given the number of
// consecutive failures so far. It never returns less than Interval.
func (c Config) Delay(failures int) time.Duration {
	if failures <= 0 {
		return c.Interval
	}
	backoff := c.MaxBackoff
	if shift := failures - 1; shift < 32 {
		if b := c.BaseBackoff << shift; b > 0 && b < c.MaxBackoff {
			backoff = b
		}
	}
	return max(backoff, c.Interval)
}
