package grouping

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/setuplab/internal/domain/setup"
)

func ranks(ss []setup.Setup) []int {
	out := make([]int, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Rank)
	}
	return out
}

func randomBatch(rng *rand.Rand, n int) []setup.Setup {
	batch := make([]setup.Setup, n)
	for i := range batch {
		offset := float64(rng.Intn(41) - 20)
		batch[i] = setup.Setup{
			Rank:                 i + 1,
			Scenario:             "random",
			TickOffset:           offset,
			Stop:                 -float64(rng.Intn(50) + 1),
			Limit:                float64(rng.Intn(80) + 1),
			TradeDurationMinutes: float64(rng.Intn(3000)),
			RewardToRiskRatio:    rng.Float64() * 4,
		}
	}
	return batch
}

// fourBuyStops spreads every axis so each bucket gets at least one member:
// stop cut points 10/20, target cut points 20/40, offset cut points 2/4.
func fourBuyStops() []setup.Setup {
	return []setup.Setup{
		{Rank: 1, TickOffset: 1, Stop: 5, Limit: 10, TradeDurationMinutes: 60, RewardToRiskRatio: 2.5},
		{Rank: 2, TickOffset: 2, Stop: 10, Limit: 20, TradeDurationMinutes: 300, RewardToRiskRatio: 1.5},
		{Rank: 3, TickOffset: 3, Stop: 15, Limit: 30, TradeDurationMinutes: 600, RewardToRiskRatio: 0.5},
		{Rank: 4, TickOffset: 4, Stop: 20, Limit: 40, TradeDurationMinutes: 2000, RewardToRiskRatio: 1.2},
	}
}

func mirrored(batch []setup.Setup) []setup.Setup {
	out := make([]setup.Setup, len(batch))
	for i, s := range batch {
		s.TickOffset = -s.TickOffset
		out[i] = s
	}
	return out
}

func TestScenarioA_StopPercentiles(t *testing.T) {
	batch := []setup.Setup{
		{Rank: 1, TickOffset: 5, Stop: 10},
		{Rank: 2, TickOffset: 5, Stop: 20},
		{Rank: 3, TickOffset: 5, Stop: 30},
		{Rank: 4, TickOffset: 5, Stop: 40},
	}

	res := Classify(batch, DefaultConfig())

	require.NotNil(t, res.Thresholds.Stop)
	assert.Equal(t, Thresholds{Low: 20, High: 40}, *res.Thresholds.Stop)
	assert.Equal(t, []int{1, 2}, ranks(res.Groups.Get(LabelBuyStopTightStop)))
	assert.Equal(t, []int{3}, ranks(res.Groups.Get(LabelBuyStopMediumStop)))
	assert.Equal(t, []int{4}, ranks(res.Groups.Get(LabelBuyStopWideStop)))
	assert.Empty(t, res.Groups.Get(LabelBuyLimitTightStop))
}

func TestScenarioB_SingleBuyLimitHighRR(t *testing.T) {
	batch := []setup.Setup{{Rank: 7, TickOffset: -3, RewardToRiskRatio: 2.5}}

	res := Classify(batch, DefaultConfig())

	assert.Equal(t, []int{7}, ranks(res.Groups.Get(LabelBuyLimit)))
	assert.Equal(t, []int{7}, ranks(res.Groups.Get(LabelBuyLimitHighRR)))
	assert.Empty(t, res.Groups.Get(LabelBuyStop))

	require.Len(t, res.Tree, 2)
	root := res.Tree[1]
	assert.Equal(t, LabelBuyLimit, root.Label)
	assert.Equal(t, "Buy Limit", root.Name)

	var leaf *Node
	for _, c := range root.Children {
		if c.Label == LabelBuyLimitHighRR {
			leaf = c
		}
	}
	require.NotNil(t, leaf, "high risk/reward group must hang directly off the Buy Limit root")
	assert.Equal(t, "Buy Limit - High Risk/Reward Setups", leaf.Name)
	assert.Equal(t, []int{7}, ranks(leaf.Setups))
	assert.Empty(t, leaf.Children)
}

func TestScenarioC_EmptyBatch(t *testing.T) {
	res := Classify(nil, DefaultConfig())

	assert.Equal(t, 0, res.Groups.Len())
	assert.Empty(t, res.Groups.Labels())
	for _, l := range AllLabels() {
		assert.Empty(t, res.Groups.Get(l), "label %s", l)
	}

	require.Len(t, res.Tree, 2)
	assert.Equal(t, LabelBuyStop, res.Tree[0].Label)
	assert.Equal(t, LabelBuyLimit, res.Tree[1].Label)
	general := []Label{LabelGeneralBuyStop, LabelGeneralBuyLimit}
	for i, root := range res.Tree {
		assert.NotNil(t, root.Setups)
		assert.Empty(t, root.Setups)
		require.Len(t, root.Children, 1)
		assert.Equal(t, general[i], root.Children[0].Label)
		assert.NotNil(t, root.Children[0].Setups)
		assert.Empty(t, root.Children[0].Setups)
	}
	assert.Equal(t, AxisThresholds{}, res.Thresholds)
}

func TestScenarioD_ZeroOffsetExcluded(t *testing.T) {
	batch := []setup.Setup{
		{Rank: 1, TickOffset: 0, Stop: 10, Limit: 20, RewardToRiskRatio: 3},
		{Rank: 2, TickOffset: 2, Stop: 10, Limit: 20, RewardToRiskRatio: 3},
	}

	res := Classify(batch, DefaultConfig())

	for _, l := range res.Groups.Labels() {
		assert.NotContains(t, ranks(res.Groups.Get(l)), 1, "label %s", l)
	}
	for _, root := range res.Tree {
		root.Walk(func(n *Node, _ int) {
			assert.NotContains(t, ranks(n.Setups), 1, "node %s", n.Label)
		})
	}
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []int{1, 2}, ranks(batch), "the raw batch is untouched")
}

func TestPartitionBySign(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	batch := randomBatch(rng, 300)

	groups := Group(batch, DefaultConfig())
	stops := map[int]bool{}
	for _, r := range ranks(groups.Get(LabelBuyStop)) {
		stops[r] = true
	}
	limits := map[int]bool{}
	for _, r := range ranks(groups.Get(LabelBuyLimit)) {
		limits[r] = true
	}

	for _, s := range batch {
		assert.Equal(t, s.TickOffset > 0, stops[s.Rank], "rank %d offset %.0f", s.Rank, s.TickOffset)
		assert.Equal(t, s.TickOffset < 0, limits[s.Rank], "rank %d offset %.0f", s.Rank, s.TickOffset)
	}
}

func TestPercentileBucketCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	batch := randomBatch(rng, 257)
	groups := Group(batch, DefaultConfig())

	axesUnderTest := []struct {
		name    string
		side    Label
		buckets []Label
	}{
		{"buy stop stop distance", LabelBuyStop, []Label{LabelBuyStopTightStop, LabelBuyStopMediumStop, LabelBuyStopWideStop}},
		{"buy limit stop distance", LabelBuyLimit, []Label{LabelBuyLimitTightStop, LabelBuyLimitMediumStop, LabelBuyLimitWideStop}},
		{"buy stop offset", LabelBuyStop, []Label{LabelBuyStopSmallOffset, LabelBuyStopMediumOffset, LabelBuyStopLargeOffset}},
		{"buy limit offset", LabelBuyLimit, []Label{LabelBuyLimitSmallOffset, LabelBuyLimitMediumOffset, LabelBuyLimitLargeOffset}},
		{"buy stop target", LabelBuyStop, []Label{LabelBuyStopSmallTarget, LabelBuyStopMediumTarget, LabelBuyStopLargeTarget}},
		{"buy limit target", LabelBuyLimit, []Label{LabelBuyLimitSmallTarget, LabelBuyLimitMediumTarget, LabelBuyLimitLargeTarget}},
	}

	for _, tt := range axesUnderTest {
		t.Run(tt.name, func(t *testing.T) {
			seen := map[int]int{}
			for _, b := range tt.buckets {
				for _, r := range ranks(groups.Get(b)) {
					seen[r]++
				}
			}
			subset := ranks(groups.Get(tt.side))
			require.NotEmpty(t, subset)
			assert.Len(t, seen, len(subset))
			for _, r := range subset {
				assert.Equal(t, 1, seen[r], "rank %d must sit in exactly one bucket", r)
			}
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	batch := randomBatch(rng, 120)
	cfg := DefaultConfig()

	first := Classify(batch, cfg)
	second := Classify(batch, cfg)

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(Assignment{})); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestHierarchyCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	batch := randomBatch(rng, 400)
	res := Classify(batch, DefaultConfig())

	occurrences := map[Label]int{}
	for _, root := range res.Tree {
		root.Walk(func(n *Node, depth int) {
			if depth > 0 {
				occurrences[n.Label]++
			}
		})
	}

	for _, l := range res.Groups.Labels() {
		if _, ok := ParentOf(l); !ok {
			continue
		}
		assert.Equal(t, 1, occurrences[l], "label %s", l)
	}
}

func TestCombinedCharacteristics(t *testing.T) {
	groups := Group(fourBuyStops(), DefaultConfig())

	assert.Equal(t, []int{1}, ranks(groups.Get(LabelBreakoutHighRR)))
	assert.Equal(t, []int{2, 4}, ranks(groups.Get(LabelBreakoutBalancedRR)))
	assert.Equal(t, []int{1}, ranks(groups.Get(LabelBuyStopTightStopHighRR)))
	assert.Equal(t, []int{4}, ranks(groups.Get(LabelBuyStopWideStopBalancedRR)))
	assert.Equal(t, []int{1}, ranks(groups.Get(LabelBuyStopScalping)))
	assert.Equal(t, []int{1, 2, 3}, ranks(groups.Get(LabelBuyStopDayTrading)))
	assert.Equal(t, []int{4}, ranks(groups.Get(LabelBuyStopSwingTrading)))

	assert.Empty(t, groups.Get(LabelLimitEntryHighRR))
	assert.Empty(t, groups.Get(LabelBuyLimitScalping))

	t.Run("duration thresholds", func(t *testing.T) {
		cfg := DefaultConfig()
		batch := fourBuyStops()
		batch[0].TradeDurationMinutes = cfg.ShortDuration - 1
		batch[1].TradeDurationMinutes = cfg.ShortDuration
		batch[2].TradeDurationMinutes = cfg.LongDuration - 1
		batch[3].TradeDurationMinutes = cfg.LongDuration

		groups := Group(batch, cfg)

		// a short trade is also a day trade
		assert.Equal(t, []int{1}, ranks(groups.Get(LabelBuyStopShortDuration)))
		assert.Equal(t, []int{1, 2, 3}, ranks(groups.Get(LabelBuyStopDayTrading)))
		assert.Equal(t, []int{2, 3}, ranks(groups.Get(LabelBuyStopMediumDuration)))
		assert.Equal(t, []int{4}, ranks(groups.Get(LabelBuyStopLongDuration)))
		assert.Equal(t, []int{4}, ranks(groups.Get(LabelBuyStopSwingTrading)))
	})
}

func TestCombinedCharacteristics_BuyLimitSide(t *testing.T) {
	groups := Group(mirrored(fourBuyStops()), DefaultConfig())

	assert.Equal(t, []int{1}, ranks(groups.Get(LabelLimitEntryHighRR)))
	assert.Equal(t, []int{2, 4}, ranks(groups.Get(LabelLimitEntryBalancedRR)))
	assert.Equal(t, []int{1}, ranks(groups.Get(LabelBuyLimitScalping)))
	assert.Equal(t, []int{4}, ranks(groups.Get(LabelBuyLimitSwingTrading)))
	assert.Empty(t, groups.Get(LabelBreakoutHighRR))
	assert.Empty(t, groups.Get(LabelBuyStopDayTrading))
}

func TestFixedAxes(t *testing.T) {
	groups := Group(fourBuyStops(), DefaultConfig())

	assert.Equal(t, []int{1}, ranks(groups.Get(LabelBuyStopHighRR)))
	assert.Equal(t, []int{2, 4}, ranks(groups.Get(LabelBuyStopBalancedRR)))
	assert.Equal(t, []int{3}, ranks(groups.Get(LabelBuyStopLowRR)))
	assert.Equal(t, []int{1}, ranks(groups.Get(LabelBuyStopShortDuration)))
	assert.Equal(t, []int{2, 3}, ranks(groups.Get(LabelBuyStopMediumDuration)))
	assert.Equal(t, []int{4}, ranks(groups.Get(LabelBuyStopLongDuration)))
}

func TestConfigOverridesShiftFixedBuckets(t *testing.T) {
	high := 3.0
	cfg := DefaultConfig().Apply(Overrides{HighRiskReward: &high})

	groups := Group(fourBuyStops(), cfg)

	assert.Empty(t, groups.Get(LabelBuyStopHighRR))
	assert.Equal(t, []int{1, 2, 4}, ranks(groups.Get(LabelBuyStopBalancedRR)))
}

func TestLargeOffsetTightStop(t *testing.T) {
	batch := []setup.Setup{
		{Rank: 1, TickOffset: 1, Stop: 20},
		{Rank: 2, TickOffset: 2, Stop: 15},
		{Rank: 3, TickOffset: 3, Stop: 10},
		{Rank: 4, TickOffset: 4, Stop: 5},
	}

	res := Classify(batch, DefaultConfig())

	assert.Equal(t, []int{4}, ranks(res.Groups.Get(LabelBuyStopLargeOffset)))
	assert.Equal(t, []int{4}, ranks(res.Groups.Get(LabelBuyStopLargeOffsetTightStop)))

	large := FindInForest(res.Tree, LabelBuyStopLargeOffset)
	require.NotNil(t, large)
	require.Len(t, large.Children, 1)
	assert.Equal(t, LabelBuyStopLargeOffsetTightStop, large.Children[0].Label)
}

func TestOffsetThresholdsIgnoreOtherSide(t *testing.T) {
	// Huge buy limit offsets must not push buy stop offsets into the small bucket
	batch := []setup.Setup{
		{Rank: 1, TickOffset: 1},
		{Rank: 2, TickOffset: 2},
		{Rank: 3, TickOffset: 3},
		{Rank: 4, TickOffset: 4},
		{Rank: 5, TickOffset: -1000},
		{Rank: 6, TickOffset: -2000},
	}

	groups := Group(batch, DefaultConfig())

	assert.Equal(t, []int{1, 2}, ranks(groups.Get(LabelBuyStopSmallOffset)))
	assert.Equal(t, []int{4}, ranks(groups.Get(LabelBuyStopLargeOffset)))
	assert.Equal(t, []int{5}, ranks(groups.Get(LabelBuyLimitSmallOffset)))
	assert.Equal(t, []int{6}, ranks(groups.Get(LabelBuyLimitLargeOffset)))
}

func TestNestedGroupsInTree(t *testing.T) {
	res := Classify(fourBuyStops(), DefaultConfig())

	short := FindInForest(res.Tree, LabelBuyStopShortDuration)
	require.NotNil(t, short)
	require.NotNil(t, short.Find(LabelBuyStopScalping))

	tight := FindInForest(res.Tree, LabelBuyStopTightStop)
	require.NotNil(t, tight)
	require.NotNil(t, tight.Find(LabelBuyStopTightStopHighRR))

	root := res.Tree[0]
	assert.Equal(t, LabelGeneralBuyStop, root.Children[0].Label)
	assert.Equal(t, []int{1, 2, 3, 4}, ranks(root.Children[0].Setups))
	assert.Nil(t, root.Find(LabelBuyLimitHighRR))
}

func TestNaNInputIsSilentlyExcluded(t *testing.T) {
	batch := []setup.Setup{
		{Rank: 1, TickOffset: 1, Stop: math.NaN(), Limit: 10, RewardToRiskRatio: math.NaN(), TradeDurationMinutes: math.NaN()},
		{Rank: 2, TickOffset: 2, Stop: 10, Limit: 20, RewardToRiskRatio: 1.5, TradeDurationMinutes: 100},
		{Rank: 3, TickOffset: 3, Stop: 20, Limit: 30, RewardToRiskRatio: 2.5, TradeDurationMinutes: 500},
		{Rank: 4, TickOffset: 4, Stop: 30, Limit: 40, RewardToRiskRatio: 0.5, TradeDurationMinutes: 5000},
	}

	var res Result
	require.NotPanics(t, func() { res = Classify(batch, DefaultConfig()) })

	assert.Contains(t, ranks(res.Groups.Get(LabelBuyStop)), 1)
	for _, l := range []Label{
		LabelBuyStopTightStop, LabelBuyStopMediumStop, LabelBuyStopWideStop,
		LabelBuyStopLowRR, LabelBuyStopBalancedRR, LabelBuyStopHighRR,
		LabelBuyStopShortDuration, LabelBuyStopMediumDuration, LabelBuyStopLongDuration,
		LabelBuyStopDayTrading, LabelBuyStopSwingTrading,
	} {
		assert.NotContains(t, ranks(res.Groups.Get(l)), 1, "label %s", l)
	}

	// finite members still land in exactly one stop bucket
	for _, r := range []int{2, 3, 4} {
		n := 0
		for _, l := range []Label{LabelBuyStopTightStop, LabelBuyStopMediumStop, LabelBuyStopWideStop} {
			for _, got := range ranks(res.Groups.Get(l)) {
				if got == r {
					n++
				}
			}
		}
		assert.Equal(t, 1, n, "rank %d", r)
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	batch := fourBuyStops()
	batch[0].Stats = map[string]float64{"netProfit": 10}
	before := fourBuyStops()
	before[0].Stats = map[string]float64{"netProfit": 10}

	_ = Classify(batch, DefaultConfig())

	assert.Equal(t, before, batch)
}

func TestGroupsPreserveRecords(t *testing.T) {
	batch := fourBuyStops()
	batch[2].Stats = map[string]float64{"winRate": 0.61}
	batch[2].Scenario = "es-2024"

	groups := Group(batch, DefaultConfig())

	members := groups.Get(LabelBuyStopMediumStop)
	require.Len(t, members, 1)
	assert.Equal(t, batch[2], members[0])
}
