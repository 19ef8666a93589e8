package grouping

// Label identifies one classification group. The set is closed: every value
// used by a pass is declared here and registered in registry.go.
type Label string

// Entry strategy
const (
	LabelBuyStop         Label = "buy_stop"
	LabelBuyLimit        Label = "buy_limit"
	LabelGeneralBuyStop  Label = "general_buy_stop"
	LabelGeneralBuyLimit Label = "general_buy_limit"
)

// Risk/reward ratio
const (
	LabelBuyStopHighRR      Label = "buy_stop_high_rr"
	LabelBuyStopBalancedRR  Label = "buy_stop_balanced_rr"
	LabelBuyStopLowRR       Label = "buy_stop_low_rr"
	LabelBuyLimitHighRR     Label = "buy_limit_high_rr"
	LabelBuyLimitBalancedRR Label = "buy_limit_balanced_rr"
	LabelBuyLimitLowRR      Label = "buy_limit_low_rr"
)

// Stop distance
const (
	LabelBuyStopTightStop   Label = "buy_stop_tight_stop"
	LabelBuyStopMediumStop  Label = "buy_stop_medium_stop"
	LabelBuyStopWideStop    Label = "buy_stop_wide_stop"
	LabelBuyLimitTightStop  Label = "buy_limit_tight_stop"
	LabelBuyLimitMediumStop Label = "buy_limit_medium_stop"
	LabelBuyLimitWideStop   Label = "buy_limit_wide_stop"
)

// Tick offset magnitude
const (
	LabelBuyStopSmallOffset           Label = "buy_stop_small_offset"
	LabelBuyStopMediumOffset          Label = "buy_stop_medium_offset"
	LabelBuyStopLargeOffset           Label = "buy_stop_large_offset"
	LabelBuyStopLargeOffsetTightStop  Label = "buy_stop_large_offset_tight_stop"
	LabelBuyLimitSmallOffset          Label = "buy_limit_small_offset"
	LabelBuyLimitMediumOffset         Label = "buy_limit_medium_offset"
	LabelBuyLimitLargeOffset          Label = "buy_limit_large_offset"
	LabelBuyLimitLargeOffsetTightStop Label = "buy_limit_large_offset_tight_stop"
)

// Limit distance (target)
const (
	LabelBuyStopSmallTarget   Label = "buy_stop_small_target"
	LabelBuyStopMediumTarget  Label = "buy_stop_medium_target"
	LabelBuyStopLargeTarget   Label = "buy_stop_large_target"
	LabelBuyLimitSmallTarget  Label = "buy_limit_small_target"
	LabelBuyLimitMediumTarget Label = "buy_limit_medium_target"
	LabelBuyLimitLargeTarget  Label = "buy_limit_large_target"
)

// Trade duration
const (
	LabelBuyStopShortDuration   Label = "buy_stop_short_duration"
	LabelBuyStopMediumDuration  Label = "buy_stop_medium_duration"
	LabelBuyStopLongDuration    Label = "buy_stop_long_duration"
	LabelBuyLimitShortDuration  Label = "buy_limit_short_duration"
	LabelBuyLimitMediumDuration Label = "buy_limit_medium_duration"
	LabelBuyLimitLongDuration   Label = "buy_limit_long_duration"
)

// Combined characteristics
const (
	LabelBreakoutHighRR             Label = "breakout_high_rr"
	LabelBreakoutBalancedRR         Label = "breakout_balanced_rr"
	LabelLimitEntryHighRR           Label = "limit_entry_high_rr"
	LabelLimitEntryBalancedRR       Label = "limit_entry_balanced_rr"
	LabelBuyStopTightStopHighRR     Label = "buy_stop_tight_stop_high_rr"
	LabelBuyStopWideStopBalancedRR  Label = "buy_stop_wide_stop_balanced_rr"
	LabelBuyStopScalping            Label = "buy_stop_scalping"
	LabelBuyStopDayTrading          Label = "buy_stop_day_trading"
	LabelBuyStopSwingTrading        Label = "buy_stop_swing_trading"
	LabelBuyLimitTightStopHighRR    Label = "buy_limit_tight_stop_high_rr"
	LabelBuyLimitWideStopBalancedRR Label = "buy_limit_wide_stop_balanced_rr"
	LabelBuyLimitScalping           Label = "buy_limit_scalping"
	LabelBuyLimitDayTrading         Label = "buy_limit_day_trading"
	LabelBuyLimitSwingTrading       Label = "buy_limit_swing_trading"
)

// String returns the label identifier
func (l Label) String() string { return string(l) }

// Valid reports whether the label is registered
func (l Label) Valid() bool {
	_, ok := Lookup(l)
	return ok
}
