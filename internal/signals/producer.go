package signals

import (
	"database/sql"
	"log"
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
)

// #region producer

// Producer derives historical death rates per depth band from the analytics
// log. It satisfies economy.RiskSource.
type Producer struct {
	db     *sql.DB
	config ProducerConfig
	logger *log.Logger
	now    func() time.Time
	cache  map[difficulty.Layer]BandRate
}

// NewProducer creates a Producer. db may be nil; every lookup then misses and
// callers fall back to their static tables.
func NewProducer(db *sql.DB, config ProducerConfig, logger *log.Logger) *Producer {
	if logger == nil {
		logger = log.Default()
	}
	def := DefaultProducerConfig()
	if config.MinOutcomes < 1 {
		config.MinOutcomes = def.MinOutcomes
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = def.RefreshInterval
	}
	b := config.LayerBreaks
	if !(b[0] < b[1] && b[1] < b[2]) {
		config.LayerBreaks = def.LayerBreaks
	}
	return &Producer{
		db:     db,
		config: config,
		logger: logger,
		now:    time.Now,
		cache:  make(map[difficulty.Layer]BandRate),
	}
}

// #endregion producer

// #region death-rate

// DeathRateAtDepth returns the historical death rate of depth's band. The
// second value is false when there is no database, the query failed, or the
// band has too few outcomes.
func (p *Producer) DeathRateAtDepth(depth float64) (float64, bool) {
	if p == nil || p.db == nil {
		return 0, false
	}
	br := p.Band(difficulty.LayerFor(depth, p.config.LayerBreaks))
	return br.Rate, br.Trusted
}

// Band returns the cached rate of a layer, re-reading it when stale.
func (p *Producer) Band(layer difficulty.Layer) BandRate {
	now := p.now()
	if br, ok := p.cache[layer]; ok && now.Sub(br.ReadAt) < p.config.RefreshInterval {
		return br
	}
	lo, hi := p.bounds(layer)
	deaths, outcomes, err := logging.OutcomeCounts(p.db, lo, hi)
	if err != nil {
		p.logger.Printf("signals: %s band unavailable: %v", layer, err)
		br := BandRate{ReadAt: now}
		p.cache[layer] = br
		return br
	}
	br := BandRate{Deaths: deaths, Outcomes: outcomes, ReadAt: now}
	if outcomes > 0 {
		br.Rate = clamp(float64(deaths) / float64(outcomes))
	}
	br.Trusted = outcomes >= p.config.MinOutcomes
	p.cache[layer] = br
	return br
}

// Invalidate drops every cached band.
func (p *Producer) Invalidate() {
	p.cache = make(map[difficulty.Layer]BandRate)
}

// #endregion death-rate

// #region helpers

func (p *Producer) bounds(layer difficulty.Layer) (float64, float64) {
	b := p.config.LayerBreaks
	switch layer {
	case difficulty.LayerShallow:
		return -math.MaxFloat64, b[0]
	case difficulty.LayerMid:
		return b[0], b[1]
	case difficulty.LayerDeep:
		return b[1], b[2]
	default:
		return b[2], math.MaxFloat64
	}
}

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
