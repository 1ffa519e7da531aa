package history

import "time"

// Default tuning values.
const (
	DefaultHotCapacity  = 500
	DefaultMaxDepth     = 10000
	DefaultGroupTimeout = 500 * time.Millisecond
)

// Config tunes one document's history.
type Config struct {
	// HotCapacity bounds the sealed groups held in memory when a store
	// is attached; sealing past it spills the oldest groups to disk.
	HotCapacity int

	// MaxDepth bounds the total sealed groups across memory and disk.
	// Sealing past it evicts the oldest groups permanently.
	MaxDepth int

	// GroupTimeout is the maximum gap between two operations for them to
	// merge into the same undo step.
	GroupTimeout time.Duration

	// Policy decides operation compatibility within the timeout. The
	// zero policy never merges; use DefaultGroupPolicy for typing-burst
	// behavior.
	Policy GroupPolicy
}

// DefaultConfig returns the standard history tuning.
func DefaultConfig() Config {
	return Config{
		HotCapacity:  DefaultHotCapacity,
		MaxDepth:     DefaultMaxDepth,
		GroupTimeout: DefaultGroupTimeout,
		Policy:       DefaultGroupPolicy(),
	}
}

// normalized clamps unusable values to the defaults.
func (c Config) normalized() Config {
	if c.HotCapacity <= 0 {
		c.HotCapacity = DefaultHotCapacity
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxDepth < c.HotCapacity {
		c.MaxDepth = c.HotCapacity
	}
	if c.GroupTimeout < 0 {
		c.GroupTimeout = DefaultGroupTimeout
	}
	return c
}
