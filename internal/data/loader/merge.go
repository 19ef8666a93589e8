package loader

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/domain/setup"
)

// SummaryPrefix marks summary columns whose name collides with a setup column
const SummaryPrefix = "summary."

// Merge builds Setup records by left-joining the summary table onto the
// setups table by rank. Every setup row yields one record in table order.
// Summary columns land in Stats; a setup without a summary row gets 0 for
// each of them. Stats only ever hold finite numbers: text cells in extra or
// summary columns are left out. Duplicate ranks in the setups table are an error.
func Merge(setups, summary Table, scenario string) ([]setup.Setup, error) {
	if !setups.Has(ColRank) {
		return nil, fmt.Errorf("setups table: missing %s column", ColRank)
	}
	if !summary.Has(ColRank) {
		return nil, fmt.Errorf("summary table: missing %s column", ColRank)
	}

	byRank, err := indexSummary(summary)
	if err != nil {
		return nil, err
	}

	out := make([]setup.Setup, 0, setups.Len())
	seen := make(map[int]bool, setups.Len())
	for i := 0; i < setups.Len(); i++ {
		rank, err := rankOf(setups, i)
		if err != nil {
			return nil, fmt.Errorf("setups row %d: %w", i+1, err)
		}
		if seen[rank] {
			return nil, fmt.Errorf("setups row %d: duplicate rank %d", i+1, rank)
		}
		seen[rank] = true

		s := setup.Setup{
			Rank:                 rank,
			Scenario:             scenario,
			TraderID:             traderID(setups.Value(i, ColTraderID)),
			TickOffset:           numeric(setups.Value(i, ColTickOffset)),
			Stop:                 numeric(setups.Value(i, ColStop)),
			Limit:                numeric(setups.Value(i, ColLimit)),
			TradeDurationMinutes: numeric(setups.Value(i, ColTradeDurationMinutes)),
			RewardToRiskRatio:    numeric(setups.Value(i, ColRewardToRiskRatio)),
			Stats:                make(map[string]float64),
		}
		if c := setups.Value(i, ColScenario); !c.Empty() {
			s.Scenario = c.Raw
		}

		for _, col := range setups.Columns {
			if _, known := knownColumns[strings.ToLower(col)]; known {
				continue
			}
			if v, ok := statValue(setups.Value(i, col)); ok {
				s.Stats[col] = v
			}
		}

		row, matched := byRank[rank]
		for _, col := range summary.Columns {
			if col == ColRank {
				continue
			}
			key := col
			if setups.Has(col) {
				key = SummaryPrefix + col
			}
			if !matched {
				s.Stats[key] = 0
				continue
			}
			c := summary.Value(row, col)
			if c.Empty() {
				s.Stats[key] = 0
				continue
			}
			if v, ok := statValue(c); ok {
				s.Stats[key] = v
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func indexSummary(summary Table) (map[int]int, error) {
	byRank := make(map[int]int, summary.Len())
	for i := 0; i < summary.Len(); i++ {
		rank, err := rankOf(summary, i)
		if err != nil {
			return nil, fmt.Errorf("summary row %d: %w", i+1, err)
		}
		if _, dup := byRank[rank]; dup {
			log.Warn().Int("rank", rank).Msg("Duplicate summary rank, keeping first row")
			continue
		}
		byRank[rank] = i
	}
	return byRank, nil
}

func rankOf(t Table, i int) (int, error) {
	c := t.Value(i, ColRank)
	if !c.IsNum || math.IsNaN(c.Num) || math.IsInf(c.Num, 0) || c.Num != math.Trunc(c.Num) {
		return 0, fmt.Errorf("invalid rank %q", c.Raw)
	}
	return int(c.Num), nil
}

// numeric maps a blank cell to 0 and non-numeric text to NaN
func numeric(c Cell) float64 {
	switch {
	case c.Empty():
		return 0
	case c.IsNum:
		return c.Num
	default:
		return math.NaN()
	}
}

// statValue accepts finite numeric cells only. "NaN" and "Inf" parse as
// numbers but cannot be carried through JSON.
func statValue(c Cell) (float64, bool) {
	if !c.IsNum || math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
		return 0, false
	}
	return c.Num, true
}

func traderID(c Cell) int {
	if !c.IsNum || math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
		return 0
	}
	return int(c.Num)
}
