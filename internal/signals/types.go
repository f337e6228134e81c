package signals

import "time"

// #region config

// ProducerConfig holds tuning knobs for telemetry-derived signals.
type ProducerConfig struct {
	LayerBreaks     [3]float64    // depth band edges, same as the difficulty layers
	MinOutcomes     int           // outcomes a band needs before its rate is trusted (default 20)
	RefreshInterval time.Duration // cached band rates are re-read after this (default 60s)
}

// DefaultProducerConfig returns sensible defaults.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		LayerBreaks:     [3]float64{25, 50, 75},
		MinOutcomes:     20,
		RefreshInterval: 60 * time.Second,
	}
}

// #endregion config

// #region band
// BandRate is the cached death rate of one depth band.
type BandRate struct {
	Deaths   int
	Outcomes int
	Rate     float64
	Trusted  bool // Outcomes >= MinOutcomes
	ReadAt   time.Time
}

// #endregion band
