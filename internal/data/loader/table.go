package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Known column names. Headers are matched case-insensitively and mapped
// onto these spellings.
const (
	ColRank                 = "rank"
	ColScenario             = "scenario"
	ColTraderID             = "traderId"
	ColTickOffset           = "tickOffset"
	ColStop                 = "stop"
	ColLimit                = "limit"
	ColTradeDurationMinutes = "tradeDurationMinutes"
	ColRewardToRiskRatio    = "rewardToRiskRatio"
)

var knownColumns = func() map[string]string {
	m := make(map[string]string)
	for _, c := range []string{
		ColRank, ColScenario, ColTraderID, ColTickOffset, ColStop,
		ColLimit, ColTradeDurationMinutes, ColRewardToRiskRatio,
	} {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// ErrNoHeader is returned for a table without a header row
var ErrNoHeader = errors.New("table has no header row")

// Cell is one dynamically typed value. Numeric text parses to Num; anything
// else keeps only its Raw text.
type Cell struct {
	Raw   string
	Num   float64
	IsNum bool
}

func newCell(raw string) Cell {
	raw = strings.TrimSpace(raw)
	c := Cell{Raw: raw}
	if raw == "" {
		return c
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		c.Num = v
		c.IsNum = true
	}
	return c
}

// Empty reports a blank cell
func (c Cell) Empty() bool {
	return c.Raw == ""
}

// Table is a decoded header plus rows. Every row has one cell per column.
type Table struct {
	Columns []string
	Rows    [][]Cell
	index   map[string]int
}

// DecodeTable reads a comma separated table: one header row followed by data
// rows. Short rows are padded with blank cells and blank lines are skipped.
func DecodeTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, ErrNoHeader
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	t := Table{index: make(map[string]int, len(header))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := normaliseColumn(h)
		if name == "" {
			name = fmt.Sprintf("column%d", i+1)
		}
		if _, dup := t.index[name]; dup {
			return Table{}, fmt.Errorf("duplicate column %q", name)
		}
		t.index[name] = i
		t.Columns = append(t.Columns, name)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row %d: %w", line, err)
		}
		if blankRecord(rec) {
			continue
		}
		row := make([]Cell, len(t.Columns))
		for i := range row {
			if i < len(rec) {
				row[i] = newCell(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func normaliseColumn(h string) string {
	h = strings.TrimSpace(h)
	if known, ok := knownColumns[strings.ToLower(h)]; ok {
		return known
	}
	return h
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Has reports whether the table carries the column
func (t Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Value returns the cell of row i in column col. A missing column yields a
// blank cell.
func (t Table) Value(i int, col string) Cell {
	j, ok := t.index[col]
	if !ok {
		return Cell{}
	}
	return t.Rows[i][j]
}

// Len is the number of data rows
func (t Table) Len() int {
	return len(t.Rows)
}
