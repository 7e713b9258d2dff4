package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fimkit/internal/errors"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x,object_1\nhead_x(0),1\n"), 0644))
	return path
}

func csvOpts() Options {
	return Options{FileFormat: ".csv"}
}

func names(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Name
	}
	return out
}

func TestResolve_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.csv")

	sources, err := Resolve(path, csvOpts())
	require.NoError(t, err)

	require.Len(t, sources, 1)
	assert.Equal(t, path, sources[0].Path)
}

func TestResolve_Reader(t *testing.T) {
	sources, err := Resolve(strings.NewReader("data"), csvOpts())
	require.NoError(t, err)

	require.Len(t, sources, 1)
	assert.NotNil(t, sources[0].Reader)

	rc, err := sources[0].Open()
	require.NoError(t, err)
	defer rc.Close()
}

func TestResolve_Directory(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv")
	b := writeFile(t, dir, "b.csv")
	writeFile(t, dir, "notes.txt")

	sources, err := Resolve(dir, csvOpts())
	require.NoError(t, err)

	assert.Equal(t, []string{a, b}, names(sources))
}

func TestResolve_DirectoryExtensionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.CSV")

	sources, err := Resolve(dir, csvOpts())
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestResolve_Subfolders(t *testing.T) {
	dir := t.TempDir()
	top := writeFile(t, dir, "top.csv")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	nested := writeFile(t, sub, "nested.csv")

	// Without recursion the nested file is ignored.
	sources, err := Resolve(dir, csvOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{top}, names(sources))

	// With recursion it is collected after the top-level files.
	sources, err = Resolve(dir, Options{FileFormat: ".csv", IncludeSubfolders: true})
	require.NoError(t, err)
	assert.Equal(t, []string{top, nested}, names(sources))
}

func TestResolve_NestedLists(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv")
	b := writeFile(t, dir, "b.csv")
	c := writeFile(t, dir, "c.csv")

	input := []any{a, []any{b, []string{c}}, strings.NewReader("stream")}

	sources, err := Resolve(input, csvOpts())
	require.NoError(t, err)

	require.Len(t, sources, 4)
	assert.Equal(t, a, sources[0].Path)
	assert.Equal(t, b, sources[1].Path)
	assert.Equal(t, c, sources[2].Path)
	assert.NotNil(t, sources[3].Reader)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input any
		check func(error) bool
	}{
		{
			name:  "unknown type",
			input: 42,
			check: apperrors.IsInvalidInput,
		},
		{
			name:  "nil input",
			input: nil,
			check: apperrors.IsInvalidInput,
		},
		{
			name:  "missing path",
			input: "/does/not/exist.csv",
			check: apperrors.IsInvalidInput,
		},
		{
			name:  "bad element inside list",
			input: []any{3.14},
			check: apperrors.IsInvalidInput,
		},
		{
			name:  "empty list",
			input: []any{},
			check: apperrors.IsEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.input, csvOpts())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestResolve_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.txt")

	_, err := Resolve(dir, csvOpts())
	require.Error(t, err)
	assert.True(t, apperrors.IsEmptyInput(err))
}
