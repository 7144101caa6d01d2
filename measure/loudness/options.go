package loudness

// TrackerConfig defines configuration for a Tracker.
type TrackerConfig struct {
	Channels   int
	KWeighting bool
}

// TrackerOption mutates a TrackerConfig.
type TrackerOption func(*TrackerConfig)

// DefaultTrackerConfig returns a mono unweighted tracker.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{Channels: 1}
}

// WithChannels sets the number of channels averaged into one level.
func WithChannels(channels int) TrackerOption {
	return func(cfg *TrackerConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithKWeighting enables the BS.1770 K-weighting pre-filter.
func WithKWeighting(enabled bool) TrackerOption {
	return func(cfg *TrackerConfig) {
		cfg.KWeighting = enabled
	}
}

// ApplyTrackerOptions applies zero or more options to the default config.
func ApplyTrackerOptions(opts ...TrackerOption) TrackerConfig {
	cfg := DefaultTrackerConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
