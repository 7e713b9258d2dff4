package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fimkit/internal/config"
	"fimkit/internal/dataprocessing"
	apperrors "fimkit/internal/errors"
	"fimkit/internal/table"
)

func nan() float64 { return table.Missing() }

// writeCSV writes a single-object export with one row per parameter and
// frame. values maps a parameter name to its per-frame values; "NaN"
// entries stay empty.
func writeCSV(t *testing.T, dir, name string, values map[string][]string) string {
	t.Helper()
	content := ",larva\n"
	for param, vals := range values {
		for frame, v := range vals {
			if v == "NaN" {
				v = ""
			}
			content += fmt.Sprintf("%s(%d),%s\n", param, frame, v)
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Cleaning.MinTrackLength = 3
	return cfg
}

// threeTrackDir writes the three-file scenario: head_x tracks
// [0..4], [5,4,3,2,1] and [NaN,NaN,1,1,1] over frames 0-4.
func threeTrackDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", map[string][]string{"head_x": {"0", "1", "2", "3", "4"}})
	writeCSV(t, dir, "b.csv", map[string][]string{"head_x": {"5", "4", "3", "2", "1"}})
	writeCSV(t, dir, "c.csv", map[string][]string{"head_x": {"NaN", "NaN", "1", "1", "1"}})
	return dir
}

func TestNew_EndToEnd(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)

	// All three objects have at least 3 valid samples; nothing drops.
	assert.Equal(t, 3, exp.NObjects())
	assert.Equal(t, 5, exp.NFrames())
	assert.Equal(t, []string{"head_x"}, exp.Parameters())
	assert.Equal(t, []string{"object_0", "object_1", "object_2"}, exp.Objects())

	headX, ok := exp.Parameter("head_x")
	require.True(t, ok)
	assert.Equal(t, 0.0, headX.At(0, "object_0"))
	assert.Equal(t, 5.0, headX.At(0, "object_1"))
	assert.True(t, table.IsMissing(headX.At(0, "object_2")))
	assert.Equal(t, 1.0, headX.At(4, "object_2"))

	assert.Empty(t, exp.SanityCheck())
}

func TestNew_ShortTrackDropped(t *testing.T) {
	cfg := testConfig()
	cfg.Cleaning.MinTrackLength = 4

	exp, err := New(threeTrackDir(t), cfg, Options{})
	require.NoError(t, err)

	// The third track has only 3 valid samples.
	assert.Equal(t, 2, exp.NObjects())
	assert.NotContains(t, exp.Objects(), "object_2")
}

func TestNew_FailsFast(t *testing.T) {
	cfg := testConfig()

	_, err := New(t.TempDir(), cfg, Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsEmptyInput(err))

	_, err = New(42, cfg, Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestNew_Derivation(t *testing.T) {
	analyses := dataprocessing.NewRegistry().
		Register("velocity", func(src dataprocessing.ParameterSource) (*table.Table, error) {
			headX, _ := src.Parameter("head_x")
			out := headX.Clone()
			out.Scale(2)
			return out, nil
		}).
		Register("mean_velocity", func(src dataprocessing.ParameterSource) (*table.Table, error) {
			// Depends on the previous formula in the same pass.
			vel, ok := src.Parameter("velocity")
			if !ok {
				return nil, fmt.Errorf("velocity not available")
			}
			out := table.New(vel.Columns(), 1)
			for i, m := range vel.ColumnMeans() {
				out.SetIndex(0, i, m)
			}
			return out, nil
		})

	exp, err := New(threeTrackDir(t), testConfig(), Options{Analyses: analyses})
	require.NoError(t, err)

	assert.Equal(t, []string{"head_x", "mean_velocity", "velocity"}, exp.Parameters())
	assert.Equal(t, []string{"head_x"}, exp.OriginalParameters())

	mv, ok := exp.Parameter("mean_velocity")
	require.True(t, ok)
	assert.True(t, mv.PerObject())
	assert.Equal(t, 4.0, mv.At(0, "object_0")) // mean(0..4)*2
}

func TestKeepRaw(t *testing.T) {
	dir := threeTrackDir(t)

	exp, err := New(dir, testConfig(), Options{})
	require.NoError(t, err)
	assert.Nil(t, exp.Raw())

	exp, err = New(dir, testConfig(), Options{KeepRaw: true})
	require.NoError(t, err)
	require.NotNil(t, exp.Raw())
	assert.Equal(t, 5, exp.Raw().Table.NRows())

	exp.DiscardRaw()
	assert.Nil(t, exp.Raw())
}

func TestMean(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)

	mean, err := exp.Mean("head_x")
	require.NoError(t, err)
	require.True(t, mean.PerObject())
	assert.Equal(t, 2.0, mean.At(0, "object_0"))
	assert.Equal(t, 3.0, mean.At(0, "object_1"))
	assert.Equal(t, 1.0, mean.At(0, "object_2"))

	_, err = exp.Mean("nope")
	assert.Error(t, err)
}

func TestMeanAll(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)
	exp.SetParameter("score", table.FromRows([]string{"object_0"}, [][]float64{{9}}))

	means := exp.MeanAll()

	// Rows follow Parameters() order: head_x, score.
	assert.Equal(t, 2, means.NRows())
	assert.Equal(t, 2.0, means.At(0, "object_0"))
	assert.Equal(t, 9.0, means.At(1, "object_0"))
	assert.True(t, table.IsMissing(means.At(1, "object_1")))
}

func TestObject(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)
	exp.SetParameter("score", table.FromRows([]string{"object_0", "object_1", "object_2"}, [][]float64{{7, 8, 9}}))

	view, err := exp.Object("object_1")
	require.NoError(t, err)

	assert.Equal(t, []string{"head_x", "score"}, view.Columns())
	assert.Equal(t, 5, view.NRows())
	assert.Equal(t, 5.0, view.At(0, "head_x"))
	assert.Equal(t, 1.0, view.At(4, "head_x"))
	// Per-object parameters occupy frame 0 only.
	assert.Equal(t, 8.0, view.At(0, "score"))
	assert.True(t, table.IsMissing(view.At(1, "score")))
}

func TestObject_Unknown(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)

	_, err = exp.Object("object_99")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnknownObject(err))
}

func TestSanityCheck_ReportsIssues(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)

	// A derived table with a diverging frame count, a missing object
	// and an empty column.
	exp.SetParameter("odd", table.FromRows([]string{"object_0", "object_9"}, [][]float64{
		{1, nan()},
		{2, nan()},
	}))

	issues := exp.SanityCheck()

	require.NotEmpty(t, issues)
	joined := fmt.Sprint(issues)
	assert.Contains(t, joined, "varying frame counts")
	assert.Contains(t, joined, "object_9")
	assert.Contains(t, joined, "empty column")
}

func TestString(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)

	s := exp.String()
	assert.Contains(t, s, "3 objects")
	assert.Contains(t, s, "5 frames")
	assert.Contains(t, s, "head_x")

	sum := exp.Summary()
	assert.Equal(t, 3, sum.NObjects)
	assert.Equal(t, 5, sum.NFrames)
	assert.Equal(t, []string{"head_x"}, sum.Parameters)
}

func TestDescribe(t *testing.T) {
	exp, err := New(threeTrackDir(t), testConfig(), Options{})
	require.NoError(t, err)

	stats, err := exp.Describe("head_x")
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "object_0", stats[0].Object)
	assert.Equal(t, 5, stats[0].Count)
	assert.Equal(t, 2.0, stats[0].Mean)

	_, err = exp.Describe("nope")
	assert.Error(t, err)
}
