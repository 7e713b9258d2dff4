package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestNew(t *testing.T) {
	tbl := New([]string{"object_0", "object_1"}, 3)

	assert.Equal(t, 3, tbl.NRows())
	assert.Equal(t, 2, tbl.NCols())
	assert.Equal(t, []string{"object_0", "object_1"}, tbl.Columns())
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			assert.True(t, IsMissing(tbl.AtIndex(r, c)))
		}
	}
}

func TestNew_DuplicateColumnPanics(t *testing.T) {
	assert.Panics(t, func() {
		New([]string{"object_0", "object_0"}, 1)
	})
}

func TestFromRows(t *testing.T) {
	rows := [][]float64{
		{1, 2},
		{3, nan()},
	}
	tbl := FromRows([]string{"a", "b"}, rows)

	assert.Equal(t, 1.0, tbl.At(0, "a"))
	assert.Equal(t, 2.0, tbl.At(0, "b"))
	assert.True(t, IsMissing(tbl.At(1, "b")))

	// Mutating the source must not affect the table.
	rows[0][0] = 99
	assert.Equal(t, 1.0, tbl.At(0, "a"))
}

func TestColumnAndRowCopies(t *testing.T) {
	tbl := FromRows([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})

	col := tbl.Column("a")
	col[0] = 42
	assert.Equal(t, 1.0, tbl.At(0, "a"))

	row := tbl.Row(1)
	row[1] = 42
	assert.Equal(t, 4.0, tbl.At(1, "b"))
}

func TestValidCount(t *testing.T) {
	tbl := FromRows([]string{"a", "b"}, [][]float64{
		{1, nan()},
		{nan(), nan()},
		{2, nan()},
	})

	assert.Equal(t, 2, tbl.ValidCount("a"))
	assert.Equal(t, 0, tbl.ValidCount("b"))
	assert.Equal(t, []float64{1, 2}, tbl.ValidValues("a"))
	assert.Empty(t, tbl.ValidValues("b"))
}

func TestSelect(t *testing.T) {
	tbl := FromRows([]string{"a", "b", "c"}, [][]float64{{1, 2, 3}})

	got := tbl.Select([]string{"c", "a", "missing"})

	assert.Equal(t, []string{"c", "a"}, got.Columns())
	assert.Equal(t, 3.0, got.At(0, "c"))
	assert.Equal(t, 1.0, got.At(0, "a"))

	// Selection copies: writing through the selection leaves the
	// original untouched.
	got.Set(0, "a", 99)
	assert.Equal(t, 1.0, tbl.At(0, "a"))
}

func TestDrop(t *testing.T) {
	tbl := FromRows([]string{"a", "b", "c"}, [][]float64{{1, 2, 3}})

	got := tbl.Drop([]string{"b"})

	assert.Equal(t, []string{"a", "c"}, got.Columns())
	assert.Equal(t, 2, got.NCols())
}

func TestSliceRows(t *testing.T) {
	tbl := FromRows([]string{"a"}, [][]float64{{0}, {1}, {2}, {3}, {4}})

	tests := []struct {
		name     string
		from, to int
		want     []float64
	}{
		{"interior", 1, 4, []float64{1, 2, 3}},
		{"clamped high", 3, 99, []float64{3, 4}},
		{"clamped low", -2, 2, []float64{0, 1}},
		{"empty", 4, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tbl.SliceRows(tt.from, tt.to)
			require.Equal(t, len(tt.want), got.NRows())
			for i, v := range tt.want {
				assert.Equal(t, v, got.At(i, "a"))
			}
		})
	}
}

func TestScaleAndSqrt(t *testing.T) {
	tbl := FromRows([]string{"a", "b"}, [][]float64{{4, nan()}, {9, 16}})

	tbl.Sqrt()
	tbl.Scale(0.5)

	assert.Equal(t, 1.0, tbl.At(0, "a"))
	assert.True(t, IsMissing(tbl.At(0, "b")))
	assert.Equal(t, 1.5, tbl.At(1, "a"))
	assert.Equal(t, 2.0, tbl.At(1, "b"))
}

func TestColumnMeans(t *testing.T) {
	tbl := FromRows([]string{"a", "b", "empty"}, [][]float64{
		{1, 10, nan()},
		{2, nan(), nan()},
		{3, 20, nan()},
	})

	assert.Equal(t, 2.0, tbl.ColumnMean("a"))
	assert.Equal(t, 15.0, tbl.ColumnMean("b"))
	assert.True(t, IsMissing(tbl.ColumnMean("empty")))

	means := tbl.ColumnMeans()
	require.Len(t, means, 3)
	assert.Equal(t, 2.0, means[0])
	assert.Equal(t, 15.0, means[1])
	assert.True(t, IsMissing(means[2]))
}

func TestColumnStdDev(t *testing.T) {
	tbl := FromRows([]string{"a", "single"}, [][]float64{
		{2, 5},
		{4, nan()},
		{6, nan()},
	})

	assert.Equal(t, 2.0, tbl.ColumnStdDev("a"))
	assert.True(t, IsMissing(tbl.ColumnStdDev("single")))
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := FromRows([]string{"a"}, [][]float64{{1}})
	cp := tbl.Clone()

	cp.Set(0, "a", 2)

	assert.Equal(t, 1.0, tbl.At(0, "a"))
	assert.Equal(t, 2.0, cp.At(0, "a"))
}

func TestPerObject(t *testing.T) {
	assert.True(t, New([]string{"a"}, 1).PerObject())
	assert.False(t, New([]string{"a"}, 2).PerObject())
}
