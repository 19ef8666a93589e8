package grouping

import "fmt"

// RegistryVersion changes whenever a label is added, removed or renamed.
// Consumers that persist label ids record it next to them.
const RegistryVersion = 3

// Definition is the display metadata and tree position of a label
type Definition struct {
	Label       Label  `json:"label" yaml:"label"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Parent      Label  `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// HasParent reports whether the label is attached somewhere in the tree
func (d Definition) HasParent() bool { return d.Parent != "" }

var definitions = []Definition{
	// Entry strategy
	{LabelBuyStop, "Buy Stop", "Setups that enter on a stop order above the market (positive tick offset).", ""},
	{LabelBuyLimit, "Buy Limit", "Setups that enter on a limit order below the market (negative tick offset).", ""},
	{LabelGeneralBuyStop, "General Buy Stop Setups", "Every buy stop setup in the batch.", ""},
	{LabelGeneralBuyLimit, "General Buy Limit Setups", "Every buy limit setup in the batch.", ""},

	// Risk/reward ratio
	{LabelBuyStopLowRR, "Buy Stop - Low Risk/Reward Setups", "Buy stop setups whose reward to risk ratio is below the low threshold.", LabelBuyStop},
	{LabelBuyStopBalancedRR, "Buy Stop - Balanced Risk/Reward Setups", "Buy stop setups whose reward to risk ratio sits between the low and high thresholds.", LabelBuyStop},
	{LabelBuyStopHighRR, "Buy Stop - High Risk/Reward Setups", "Buy stop setups whose reward to risk ratio is at or above the high threshold.", LabelBuyStop},
	{LabelBuyLimitLowRR, "Buy Limit - Low Risk/Reward Setups", "Buy limit setups whose reward to risk ratio is below the low threshold.", LabelBuyLimit},
	{LabelBuyLimitBalancedRR, "Buy Limit - Balanced Risk/Reward Setups", "Buy limit setups whose reward to risk ratio sits between the low and high thresholds.", LabelBuyLimit},
	{LabelBuyLimitHighRR, "Buy Limit - High Risk/Reward Setups", "Buy limit setups whose reward to risk ratio is at or above the high threshold.", LabelBuyLimit},

	// Stop distance
	{LabelBuyStopTightStop, "Buy Stop - Tight Stop Setups", "Buy stop setups with a stop distance in the bottom quartile of the batch.", LabelBuyStop},
	{LabelBuyStopMediumStop, "Buy Stop - Medium Stop Setups", "Buy stop setups with a stop distance between the batch quartiles.", LabelBuyStop},
	{LabelBuyStopWideStop, "Buy Stop - Wide Stop Setups", "Buy stop setups with a stop distance in the top quartile of the batch.", LabelBuyStop},
	{LabelBuyLimitTightStop, "Buy Limit - Tight Stop Setups", "Buy limit setups with a stop distance in the bottom quartile of the batch.", LabelBuyLimit},
	{LabelBuyLimitMediumStop, "Buy Limit - Medium Stop Setups", "Buy limit setups with a stop distance between the batch quartiles.", LabelBuyLimit},
	{LabelBuyLimitWideStop, "Buy Limit - Wide Stop Setups", "Buy limit setups with a stop distance in the top quartile of the batch.", LabelBuyLimit},

	// Tick offset magnitude
	{LabelBuyStopSmallOffset, "Buy Stop - Small Tick Offset Setups", "Buy stop setups entering closest to the market, bottom quartile of buy stop offsets.", LabelBuyStop},
	{LabelBuyStopMediumOffset, "Buy Stop - Medium Tick Offset Setups", "Buy stop setups with an offset between the buy stop quartiles.", LabelBuyStop},
	{LabelBuyStopLargeOffset, "Buy Stop - Large Tick Offset Setups", "Buy stop setups entering furthest from the market, top quartile of buy stop offsets.", LabelBuyStop},
	{LabelBuyStopLargeOffsetTightStop, "Buy Stop - Large Offset with Tight Stop", "Large offset buy stop setups that also carry a tight stop.", LabelBuyStopLargeOffset},
	{LabelBuyLimitSmallOffset, "Buy Limit - Small Tick Offset Setups", "Buy limit setups entering closest to the market, bottom quartile of buy limit offsets.", LabelBuyLimit},
	{LabelBuyLimitMediumOffset, "Buy Limit - Medium Tick Offset Setups", "Buy limit setups with an offset between the buy limit quartiles.", LabelBuyLimit},
	{LabelBuyLimitLargeOffset, "Buy Limit - Large Tick Offset Setups", "Buy limit setups entering furthest from the market, top quartile of buy limit offsets.", LabelBuyLimit},
	{LabelBuyLimitLargeOffsetTightStop, "Buy Limit - Large Offset with Tight Stop", "Large offset buy limit setups that also carry a tight stop.", LabelBuyLimitLargeOffset},

	// Limit distance (target)
	{LabelBuyStopSmallTarget, "Buy Stop - Small Target Setups", "Buy stop setups with a target distance in the bottom quartile of the batch.", LabelBuyStop},
	{LabelBuyStopMediumTarget, "Buy Stop - Medium Target Setups", "Buy stop setups with a target distance between the batch quartiles.", LabelBuyStop},
	{LabelBuyStopLargeTarget, "Buy Stop - Large Target Setups", "Buy stop setups with a target distance in the top quartile of the batch.", LabelBuyStop},
	{LabelBuyLimitSmallTarget, "Buy Limit - Small Target Setups", "Buy limit setups with a target distance in the bottom quartile of the batch.", LabelBuyLimit},
	{LabelBuyLimitMediumTarget, "Buy Limit - Medium Target Setups", "Buy limit setups with a target distance between the batch quartiles.", LabelBuyLimit},
	{LabelBuyLimitLargeTarget, "Buy Limit - Large Target Setups", "Buy limit setups with a target distance in the top quartile of the batch.", LabelBuyLimit},

	// Trade duration
	{LabelBuyStopShortDuration, "Buy Stop - Short Duration Trades", "Buy stop setups whose trades close before the short duration threshold.", LabelBuyStop},
	{LabelBuyStopMediumDuration, "Buy Stop - Medium Duration Trades", "Buy stop setups whose trades last between the short and long duration thresholds.", LabelBuyStop},
	{LabelBuyStopLongDuration, "Buy Stop - Long Duration Trades", "Buy stop setups whose trades last at least the long duration threshold.", LabelBuyStop},
	{LabelBuyLimitShortDuration, "Buy Limit - Short Duration Trades", "Buy limit setups whose trades close before the short duration threshold.", LabelBuyLimit},
	{LabelBuyLimitMediumDuration, "Buy Limit - Medium Duration Trades", "Buy limit setups whose trades last between the short and long duration thresholds.", LabelBuyLimit},
	{LabelBuyLimitLongDuration, "Buy Limit - Long Duration Trades", "Buy limit setups whose trades last at least the long duration threshold.", LabelBuyLimit},

	// Combined characteristics
	{LabelBreakoutHighRR, "Breakout - High Risk/Reward", "Breakout entries (buy stop) with a high reward to risk ratio.", LabelBuyStop},
	{LabelBreakoutBalancedRR, "Breakout - Balanced Risk/Reward", "Breakout entries (buy stop) with a balanced reward to risk ratio.", LabelBuyStop},
	{LabelLimitEntryHighRR, "Limit Entry - High Risk/Reward", "Pullback entries (buy limit) with a high reward to risk ratio.", LabelBuyLimit},
	{LabelLimitEntryBalancedRR, "Limit Entry - Balanced Risk/Reward", "Pullback entries (buy limit) with a balanced reward to risk ratio.", LabelBuyLimit},
	{LabelBuyStopTightStopHighRR, "Buy Stop - Tight Stop with High Risk/Reward", "Tight stop buy stop setups that also reach the high reward to risk threshold.", LabelBuyStopTightStop},
	{LabelBuyStopWideStopBalancedRR, "Buy Stop - Wide Stop with Balanced Risk/Reward", "Wide stop buy stop setups with a balanced reward to risk ratio.", LabelBuyStopWideStop},
	{LabelBuyStopScalping, "Buy Stop - Scalping Style", "Buy stop setups with a tight stop, a small target and a short duration.", LabelBuyStopShortDuration},
	{LabelBuyStopDayTrading, "Buy Stop - Day Trading Style", "Buy stop setups whose trades close within the trading day.", LabelBuyStop},
	{LabelBuyStopSwingTrading, "Buy Stop - Swing Trading Style", "Buy stop setups held for at least the long duration threshold.", LabelBuyStop},
	{LabelBuyLimitTightStopHighRR, "Buy Limit - Tight Stop with High Risk/Reward", "Tight stop buy limit setups that also reach the high reward to risk threshold.", LabelBuyLimitTightStop},
	{LabelBuyLimitWideStopBalancedRR, "Buy Limit - Wide Stop with Balanced Risk/Reward", "Wide stop buy limit setups with a balanced reward to risk ratio.", LabelBuyLimitWideStop},
	{LabelBuyLimitScalping, "Buy Limit - Scalping Style", "Buy limit setups with a tight stop, a small target and a short duration.", LabelBuyLimitShortDuration},
	{LabelBuyLimitDayTrading, "Buy Limit - Day Trading Style", "Buy limit setups whose trades close within the trading day.", LabelBuyLimit},
	{LabelBuyLimitSwingTrading, "Buy Limit - Swing Trading Style", "Buy limit setups held for at least the long duration threshold.", LabelBuyLimit},
}

var registry = buildRegistry(definitions)

func buildRegistry(defs []Definition) map[Label]Definition {
	m := make(map[Label]Definition, len(defs))
	for _, d := range defs {
		if _, dup := m[d.Label]; dup {
			panic(fmt.Sprintf("grouping: label %q registered twice", d.Label))
		}
		m[d.Label] = d
	}
	for _, d := range defs {
		if d.HasParent() {
			if _, ok := m[d.Parent]; !ok {
				panic(fmt.Sprintf("grouping: label %q has unregistered parent %q", d.Label, d.Parent))
			}
		}
	}
	return m
}

// Lookup returns the definition of a label
func Lookup(l Label) (Definition, bool) {
	d, ok := registry[l]
	return d, ok
}

// MustLookup returns the definition of a label and panics on an unregistered one.
// An unregistered label coming out of a pass is a defect in this package.
func MustLookup(l Label) Definition {
	d, ok := registry[l]
	if !ok {
		panic(fmt.Sprintf("grouping: label %q is not registered", l))
	}
	return d
}

// ParentOf returns the static tree parent of a label
func ParentOf(l Label) (Label, bool) {
	d, ok := registry[l]
	if !ok || !d.HasParent() {
		return "", false
	}
	return d.Parent, true
}

// Definitions returns a copy of the registry in declaration order
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// AllLabels returns every registered label in declaration order
func AllLabels() []Label {
	out := make([]Label, len(definitions))
	for i, d := range definitions {
		out[i] = d.Label
	}
	return out
}
