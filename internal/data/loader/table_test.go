package loader

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTable_DynamicTyping(t *testing.T) {
	in := "Rank, TickOffset ,Stop,label\n1,2.5,-10,breakout\n2,,NaN,x\n"

	tbl, err := DecodeTable(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{ColRank, ColTickOffset, ColStop, "label"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())

	c := tbl.Value(0, ColTickOffset)
	assert.True(t, c.IsNum)
	assert.Equal(t, 2.5, c.Num)

	assert.False(t, tbl.Value(0, "label").IsNum)
	assert.Equal(t, "breakout", tbl.Value(0, "label").Raw)

	assert.True(t, tbl.Value(1, ColTickOffset).Empty())
	assert.True(t, math.IsNaN(tbl.Value(1, ColStop).Num))
	assert.True(t, tbl.Value(1, "missing").Empty())
}

func TestDecodeTable_PadsShortRowsAndSkipsBlankLines(t *testing.T) {
	in := "\ufeffrank,stop,limit\n1,5\n\n,,\n2,6,7\n"

	tbl, err := DecodeTable(strings.NewReader(in))
	require.NoError(t, err)

	assert.True(t, tbl.Has(ColRank), "byte order mark is stripped")
	require.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Value(0, ColLimit).Empty())
	assert.Equal(t, 7.0, tbl.Value(1, ColLimit).Num)
}

func TestDecodeTable_Errors(t *testing.T) {
	_, err := DecodeTable(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = DecodeTable(strings.NewReader("rank,RANK\n1,2\n"))
	assert.Error(t, err)

	_, err = DecodeTable(strings.NewReader("rank,stop\n1,\"unterminated\n"))
	assert.Error(t, err)
}
