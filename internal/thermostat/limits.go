package thermostat

import (
	"fmt"
	"math"
	"time"
)

// Defaults used when no configuration overrides them.
const (
	DefaultMinTargetC     = 10.0
	DefaultMaxTargetC     = 35.0
	DefaultTargetC        = 20.0
	DefaultStaleAfter     = 15 * time.Minute
	DefaultHotThresholdC  = 3.0
	DefaultWarmThresholdC = 1.0
	DefaultCoolThresholdC = -1.0
	DefaultColdThresholdC = -3.0
)

// BandThresholds are the cut points applied to (temperature - target).
// A delta >= Hot is HOT, >= Warm is WARM, <= Cold is COLD, <= Cool is COOL, anything else is OK.
type BandThresholds struct {
	Hot  float64
	Warm float64
	Cool float64
	Cold float64
}

// Classify maps a temperature delta to its band.
func (b BandThresholds) Classify(diff float64) Band {
	switch {
	case diff >= b.Hot:
		return BandHot
	case diff >= b.Warm:
		return BandWarm
	case diff <= b.Cold:
		return BandCold
	case diff <= b.Cool:
		return BandCool
	default:
		return BandOk
	}
}

// Limits holds the tunables shared by every room of a controller.
type Limits struct {
	MinTargetC     float64
	MaxTargetC     float64
	DefaultTargetC float64
	StaleAfter     time.Duration
	Bands          BandThresholds
}

// DefaultLimits returns the stock 10–35 °C range with a 15 minute freshness window.
func DefaultLimits() Limits {
	return Limits{
		MinTargetC:     DefaultMinTargetC,
		MaxTargetC:     DefaultMaxTargetC,
		DefaultTargetC: DefaultTargetC,
		StaleAfter:     DefaultStaleAfter,
		Bands: BandThresholds{
			Hot:  DefaultHotThresholdC,
			Warm: DefaultWarmThresholdC,
			Cool: DefaultCoolThresholdC,
			Cold: DefaultColdThresholdC,
		},
	}
}

// Validate checks that the range and thresholds are usable.
func (l Limits) Validate() error {
	if !isFinite(l.MinTargetC) || !isFinite(l.MaxTargetC) || l.MinTargetC >= l.MaxTargetC {
		return fmt.Errorf("%w: target range [%.1f, %.1f]", ErrInvalidLimits, l.MinTargetC, l.MaxTargetC)
	}
	if l.DefaultTargetC < l.MinTargetC || l.DefaultTargetC > l.MaxTargetC {
		return fmt.Errorf("%w: default target %.1f outside [%.1f, %.1f]",
			ErrInvalidLimits, l.DefaultTargetC, l.MinTargetC, l.MaxTargetC)
	}
	if l.StaleAfter <= 0 {
		return fmt.Errorf("%w: stale_after must be positive, got %s", ErrInvalidLimits, l.StaleAfter)
	}
	b := l.Bands
	if !(b.Hot >= b.Warm && b.Warm > b.Cool && b.Cool >= b.Cold) {
		return fmt.Errorf("%w: band thresholds must satisfy hot >= warm > cool >= cold, got %+v", ErrInvalidLimits, b)
	}
	return nil
}

// ClampTarget returns t limited to [MinTargetC, MaxTargetC].
func (l Limits) ClampTarget(t float64) float64 {
	return clamp(t, l.MinTargetC, l.MaxTargetC)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
