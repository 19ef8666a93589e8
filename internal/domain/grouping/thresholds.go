package grouping

import (
	"sort"

	"github.com/sawpanic/setuplab/internal/domain/setup"
)

const (
	lowPercentile  = 0.25
	highPercentile = 0.75
)

// Bucket is the position of a value relative to a pair of thresholds
type Bucket int

const (
	BucketNone Bucket = iota // NaN compares false against both thresholds
	BucketLow
	BucketMid
	BucketHigh
)

// Thresholds are the 25th and 75th percentile cut points of one axis
type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ComputeThresholds picks sorted[floor(N*0.25)] and sorted[floor(N*0.75)].
// ok is false for an empty input and the caller must skip the axis.
func ComputeThresholds(values []float64) (Thresholds, bool) {
	n := len(values)
	if n == 0 {
		return Thresholds{}, false
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Thresholds{
		Low:  sorted[int(float64(n)*lowPercentile)],
		High: sorted[int(float64(n)*highPercentile)],
	}, true
}

// Bucket classifies v. The low check runs first, so when Low == High a value
// equal to both lands in BucketLow.
func (t Thresholds) Bucket(v float64) Bucket {
	switch {
	case v <= t.Low:
		return BucketLow
	case v >= t.High:
		return BucketHigh
	case v > t.Low && v < t.High:
		return BucketMid
	default:
		return BucketNone
	}
}

// axis is one threshold pair plus whether the batch had values for it
type axis struct {
	Thresholds
	ok bool
}

func newAxis(values []float64) axis {
	t, ok := ComputeThresholds(values)
	return axis{Thresholds: t, ok: ok}
}

func (a axis) bucket(v float64) Bucket {
	if !a.ok {
		return BucketNone
	}
	return a.Bucket(v)
}

func (a axis) ptr() *Thresholds {
	if !a.ok {
		return nil
	}
	t := a.Thresholds
	return &t
}

// axes holds the percentile thresholds derived from one batch. Stop and limit
// cut points come from the whole batch; offset cut points from each side alone.
type axes struct {
	stop           axis
	limit          axis
	offsetBuyStop  axis
	offsetBuyLimit axis
}

func computeAxes(batch []setup.Setup) axes {
	stops := make([]float64, 0, len(batch))
	limits := make([]float64, 0, len(batch))
	var stopOffsets, limitOffsets []float64

	for _, s := range batch {
		stops = append(stops, s.StopDistance())
		limits = append(limits, s.LimitDistance())
		switch s.EntrySide() {
		case setup.SideBuyStop:
			stopOffsets = append(stopOffsets, s.OffsetMagnitude())
		case setup.SideBuyLimit:
			limitOffsets = append(limitOffsets, s.OffsetMagnitude())
		}
	}

	return axes{
		stop:           newAxis(stops),
		limit:          newAxis(limits),
		offsetBuyStop:  newAxis(stopOffsets),
		offsetBuyLimit: newAxis(limitOffsets),
	}
}

func (a axes) offset(side setup.Side) axis {
	switch side {
	case setup.SideBuyStop:
		return a.offsetBuyStop
	case setup.SideBuyLimit:
		return a.offsetBuyLimit
	default:
		return axis{}
	}
}

// AxisThresholds reports the cut points used for one run. A nil field means
// the axis had no values and was skipped.
type AxisThresholds struct {
	Stop           *Thresholds `json:"stop,omitempty"`
	Limit          *Thresholds `json:"limit,omitempty"`
	BuyStopOffset  *Thresholds `json:"buyStopOffset,omitempty"`
	BuyLimitOffset *Thresholds `json:"buyLimitOffset,omitempty"`
}

func (a axes) report() AxisThresholds {
	return AxisThresholds{
		Stop:           a.stop.ptr(),
		Limit:          a.limit.ptr(),
		BuyStopOffset:  a.offsetBuyStop.ptr(),
		BuyLimitOffset: a.offsetBuyLimit.ptr(),
	}
}
