package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/branchless/internal/mask"
)

func TestRun_AllWidthsPass(t *testing.T) {
	report, err := Run(nil)
	require.NoError(t, err)

	assert.True(t, report.Pass())
	assert.Zero(t, report.Failed)
	// 4 widths, signed and unsigned, 6 binary + 2 unary + 2 mux adapters.
	assert.Len(t, report.Results, 4*2*10)
	for _, r := range report.Results {
		assert.Zero(t, r.Failed, "%s %s: %s", r.Type, r.Adapter, r.Example)
		assert.Positive(t, r.Checked)
		assert.Empty(t, r.Example)
	}
}

func TestRun_SingleWidth(t *testing.T) {
	report, err := Run([]int{8})
	require.NoError(t, err)
	require.Len(t, report.Results, 20)

	assert.Equal(t, "int8", report.Results[0].Type)
	assert.Equal(t, "lt", report.Results[0].Adapter)
	// Exhaustive: every pair, two arm pairs.
	assert.Equal(t, 256*256*2, report.Results[0].Checked)
	assert.Equal(t, "uint8", report.Results[10].Type)
	assert.Equal(t, "mux_additive", report.Results[19].Adapter)
}

func TestRun_UnsupportedWidth(t *testing.T) {
	_, err := Run([]int{12})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported width 12")
}

func TestCheckBinary_ReportsWrappingDifference(t *testing.T) {
	wrap := binaryAdapter[int8]{
		name:   "ltwrap",
		sel:    mask.SelLTWrap[int8],
		native: func(x, y int8) bool { return x < y },
	}
	r := checkBinary(wrap, samples[int8]())

	assert.Positive(t, r.Failed)
	assert.NotEmpty(t, r.Example)
	assert.Less(t, r.Failed, r.Checked)
}

func TestSamples(t *testing.T) {
	assert.Len(t, samples[uint8](), 256)

	s := samples[int16]()
	assert.Contains(t, s, int16(0))
	assert.Contains(t, s, int16(-1))
	assert.Contains(t, s, int16(-32768))
	assert.Contains(t, s, int16(32767))
	assert.Contains(t, s, int16(1))

	u := samples[uint64]()
	assert.Contains(t, u, uint64(1<<63))
	assert.Contains(t, u, uint64(1<<63-1))
	assert.Contains(t, u, ^uint64(0))

	seen := make(map[uint64]bool)
	for _, v := range u {
		assert.False(t, seen[v], "duplicate sample %d", v)
		seen[v] = true
	}
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "int32", typeName[int32]())
	assert.Equal(t, "uint64", typeName[uint64]())
}
