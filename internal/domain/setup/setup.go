// Package setup defines the trade setup record produced by a backtest run.
package setup

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNonFinite is returned by Validate when a classification input is NaN or Inf
var ErrNonFinite = errors.New("non-finite classification input")

// Side is the directional entry style implied by the sign of the tick offset
type Side int

const (
	SideNone Side = iota
	SideBuyStop
	SideBuyLimit
)

// String returns the display name of the side
func (s Side) String() string {
	switch s {
	case SideBuyStop:
		return "Buy Stop"
	case SideBuyLimit:
		return "Buy Limit"
	default:
		return "None"
	}
}

// Setup is one parameter tuple from a backtest together with its statistics.
// Values are treated as immutable once loaded.
type Setup struct {
	Rank     int    `json:"rank"`
	Scenario string `json:"scenario"`
	TraderID int    `json:"traderId"`

	TickOffset           float64 `json:"tickOffset"`
	Stop                 float64 `json:"stop"`
	Limit                float64 `json:"limit"`
	TradeDurationMinutes float64 `json:"tradeDurationMinutes"`
	RewardToRiskRatio    float64 `json:"rewardToRiskRatio"`

	// Stats holds every other numeric column, carried through unchanged
	Stats map[string]float64 `json:"stats,omitempty"`
}

// EntrySide reports buy-stop for a positive offset and buy-limit for a negative one.
// Zero and NaN offsets belong to neither side.
func (s Setup) EntrySide() Side {
	switch {
	case s.TickOffset > 0:
		return SideBuyStop
	case s.TickOffset < 0:
		return SideBuyLimit
	default:
		return SideNone
	}
}

// StopDistance is the risk distance regardless of sign
func (s Setup) StopDistance() float64 { return math.Abs(s.Stop) }

// LimitDistance is the target distance regardless of sign
func (s Setup) LimitDistance() float64 { return math.Abs(s.Limit) }

// OffsetMagnitude is the entry offset distance regardless of side
func (s Setup) OffsetMagnitude() float64 { return math.Abs(s.TickOffset) }

// Validate checks that every field the classifier reads is finite, and every
// carried statistic too since batches are encoded as JSON downstream.
func (s Setup) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"tickOffset", s.TickOffset},
		{"stop", s.Stop},
		{"limit", s.Limit},
		{"tradeDurationMinutes", s.TradeDurationMinutes},
		{"rewardToRiskRatio", s.RewardToRiskRatio},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("setup rank %d field %s: %w", s.Rank, f.name, ErrNonFinite)
		}
	}

	names := make([]string, 0, len(s.Stats))
	for name := range s.Stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := s.Stats[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("setup rank %d stat %s: %w", s.Rank, name, ErrNonFinite)
		}
	}
	return nil
}

// Stat returns a carried-through statistic, or 0 when absent
func (s Setup) Stat(name string) float64 {
	return s.Stats[name]
}
