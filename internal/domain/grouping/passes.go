package grouping

import "github.com/sawpanic/setuplab/internal/domain/setup"

// pass is one independent grouping over the whole batch
type pass struct {
	name string
	run  func(batch []setup.Setup, cfg Config, ax axes) Assignment
}

// passes run in this order and their outputs are merged by union
var passes = []pass{
	{"entry_strategy", entryStrategyPass},
	{"risk_reward", riskRewardPass},
	{"stop_distance", stopDistancePass},
	{"tick_offset", tickOffsetPass},
	{"limit_distance", limitDistancePass},
	{"trade_duration", tradeDurationPass},
	{"combined", combinedPass},
}

// sideLabels picks the per-side variant of one bucket
type sideLabels struct {
	buyStop  Label
	buyLimit Label
}

func (sl sideLabels) forSide(side setup.Side) (Label, bool) {
	switch side {
	case setup.SideBuyStop:
		return sl.buyStop, true
	case setup.SideBuyLimit:
		return sl.buyLimit, true
	default:
		return "", false
	}
}

// bucketLabels maps the three buckets of an axis to their per-side labels
type bucketLabels struct {
	low, mid, high sideLabels
}

func (bl bucketLabels) slots() []Label {
	return []Label{
		bl.low.buyStop, bl.mid.buyStop, bl.high.buyStop,
		bl.low.buyLimit, bl.mid.buyLimit, bl.high.buyLimit,
	}
}

func (bl bucketLabels) forBucket(b Bucket, side setup.Side) (Label, bool) {
	switch b {
	case BucketLow:
		return bl.low.forSide(side)
	case BucketMid:
		return bl.mid.forSide(side)
	case BucketHigh:
		return bl.high.forSide(side)
	default:
		return "", false
	}
}

var (
	riskRewardLabels = bucketLabels{
		low:  sideLabels{LabelBuyStopLowRR, LabelBuyLimitLowRR},
		mid:  sideLabels{LabelBuyStopBalancedRR, LabelBuyLimitBalancedRR},
		high: sideLabels{LabelBuyStopHighRR, LabelBuyLimitHighRR},
	}
	stopLabels = bucketLabels{
		low:  sideLabels{LabelBuyStopTightStop, LabelBuyLimitTightStop},
		mid:  sideLabels{LabelBuyStopMediumStop, LabelBuyLimitMediumStop},
		high: sideLabels{LabelBuyStopWideStop, LabelBuyLimitWideStop},
	}
	offsetLabels = bucketLabels{
		low:  sideLabels{LabelBuyStopSmallOffset, LabelBuyLimitSmallOffset},
		mid:  sideLabels{LabelBuyStopMediumOffset, LabelBuyLimitMediumOffset},
		high: sideLabels{LabelBuyStopLargeOffset, LabelBuyLimitLargeOffset},
	}
	targetLabels = bucketLabels{
		low:  sideLabels{LabelBuyStopSmallTarget, LabelBuyLimitSmallTarget},
		mid:  sideLabels{LabelBuyStopMediumTarget, LabelBuyLimitMediumTarget},
		high: sideLabels{LabelBuyStopLargeTarget, LabelBuyLimitLargeTarget},
	}
	durationLabels = bucketLabels{
		low:  sideLabels{LabelBuyStopShortDuration, LabelBuyLimitShortDuration},
		mid:  sideLabels{LabelBuyStopMediumDuration, LabelBuyLimitMediumDuration},
		high: sideLabels{LabelBuyStopLongDuration, LabelBuyLimitLongDuration},
	}
	largeOffsetTightStop = sideLabels{LabelBuyStopLargeOffsetTightStop, LabelBuyLimitLargeOffsetTightStop}
)

// fixedBucket applies half-open fixed thresholds: below low, [low, high), at or above high.
// NaN lands in BucketNone.
func fixedBucket(v, low, high float64) Bucket {
	switch {
	case v < low:
		return BucketLow
	case v >= high:
		return BucketHigh
	case v >= low && v < high:
		return BucketMid
	default:
		return BucketNone
	}
}

func entryStrategyPass(batch []setup.Setup, _ Config, _ axes) Assignment {
	a := newAssignment(LabelBuyStop, LabelBuyLimit)
	for _, s := range batch {
		switch s.EntrySide() {
		case setup.SideBuyStop:
			a.add(LabelBuyStop, s)
		case setup.SideBuyLimit:
			a.add(LabelBuyLimit, s)
		}
	}
	return a
}

func riskRewardPass(batch []setup.Setup, cfg Config, _ axes) Assignment {
	a := newAssignment(riskRewardLabels.slots()...)
	for _, s := range batch {
		b := fixedBucket(s.RewardToRiskRatio, cfg.LowRiskReward, cfg.HighRiskReward)
		if l, ok := riskRewardLabels.forBucket(b, s.EntrySide()); ok {
			a.add(l, s)
		}
	}
	return a
}

func stopDistancePass(batch []setup.Setup, _ Config, ax axes) Assignment {
	a := newAssignment(stopLabels.slots()...)
	if !ax.stop.ok {
		return a
	}
	for _, s := range batch {
		if l, ok := stopLabels.forBucket(ax.stop.bucket(s.StopDistance()), s.EntrySide()); ok {
			a.add(l, s)
		}
	}
	return a
}

// tickOffsetPass compares each offset only against thresholds drawn from
// setups of the same side.
func tickOffsetPass(batch []setup.Setup, _ Config, ax axes) Assignment {
	slots := []Label{
		LabelBuyStopSmallOffset, LabelBuyStopMediumOffset, LabelBuyStopLargeOffset, LabelBuyStopLargeOffsetTightStop,
		LabelBuyLimitSmallOffset, LabelBuyLimitMediumOffset, LabelBuyLimitLargeOffset, LabelBuyLimitLargeOffsetTightStop,
	}
	a := newAssignment(slots...)

	for _, s := range batch {
		side := s.EntrySide()
		b := ax.offset(side).bucket(s.OffsetMagnitude())
		l, ok := offsetLabels.forBucket(b, side)
		if !ok {
			continue
		}
		a.add(l, s)
		if b == BucketHigh && ax.stop.bucket(s.StopDistance()) == BucketLow {
			if conj, ok := largeOffsetTightStop.forSide(side); ok {
				a.add(conj, s)
			}
		}
	}
	return a
}

func limitDistancePass(batch []setup.Setup, _ Config, ax axes) Assignment {
	a := newAssignment(targetLabels.slots()...)
	if !ax.limit.ok {
		return a
	}
	for _, s := range batch {
		if l, ok := targetLabels.forBucket(ax.limit.bucket(s.LimitDistance()), s.EntrySide()); ok {
			a.add(l, s)
		}
	}
	return a
}

func tradeDurationPass(batch []setup.Setup, cfg Config, _ axes) Assignment {
	a := newAssignment(durationLabels.slots()...)
	for _, s := range batch {
		b := fixedBucket(s.TradeDurationMinutes, cfg.ShortDuration, cfg.LongDuration)
		if l, ok := durationLabels.forBucket(b, s.EntrySide()); ok {
			a.add(l, s)
		}
	}
	return a
}

var (
	tightStopHighRR     = sideLabels{LabelBuyStopTightStopHighRR, LabelBuyLimitTightStopHighRR}
	wideStopBalancedRR  = sideLabels{LabelBuyStopWideStopBalancedRR, LabelBuyLimitWideStopBalancedRR}
	scalpingStyle       = sideLabels{LabelBuyStopScalping, LabelBuyLimitScalping}
	dayTradingStyle     = sideLabels{LabelBuyStopDayTrading, LabelBuyLimitDayTrading}
	swingTradingStyle   = sideLabels{LabelBuyStopSwingTrading, LabelBuyLimitSwingTrading}
	entryHighRR         = sideLabels{LabelBreakoutHighRR, LabelLimitEntryHighRR}
	entryBalancedRR     = sideLabels{LabelBreakoutBalancedRR, LabelLimitEntryBalancedRR}
	combinedSlotsBySide = []sideLabels{tightStopHighRR, wideStopBalancedRR, scalpingStyle, dayTradingStyle, swingTradingStyle}
)

// combinedPass derives the compound labels. Breakout and limit-entry labels
// name their side implicitly and carry no side prefix.
func combinedPass(batch []setup.Setup, cfg Config, ax axes) Assignment {
	slots := []Label{LabelBreakoutHighRR, LabelBreakoutBalancedRR, LabelLimitEntryHighRR, LabelLimitEntryBalancedRR}
	for _, sl := range combinedSlotsBySide {
		slots = append(slots, sl.buyStop)
	}
	for _, sl := range combinedSlotsBySide {
		slots = append(slots, sl.buyLimit)
	}
	a := newAssignment(slots...)

	for _, s := range batch {
		side := s.EntrySide()
		if side == setup.SideNone {
			continue
		}
		rr := fixedBucket(s.RewardToRiskRatio, cfg.LowRiskReward, cfg.HighRiskReward)
		stop := ax.stop.bucket(s.StopDistance())
		target := ax.limit.bucket(s.LimitDistance())
		d := s.TradeDurationMinutes

		emit := func(sl sideLabels, cond bool) {
			if !cond {
				return
			}
			if l, ok := sl.forSide(side); ok {
				a.add(l, s)
			}
		}

		emit(entryHighRR, rr == BucketHigh)
		emit(entryBalancedRR, rr == BucketMid)
		emit(tightStopHighRR, stop == BucketLow && rr == BucketHigh)
		emit(wideStopBalancedRR, stop == BucketHigh && rr == BucketMid)
		emit(scalpingStyle, stop == BucketLow && target == BucketLow && d < cfg.ShortDuration)
		emit(dayTradingStyle, d < cfg.LongDuration)
		emit(swingTradingStyle, d >= cfg.LongDuration)
	}
	return a
}
