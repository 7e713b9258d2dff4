package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	apperrors "fimkit/internal/errors"
)

// Source is one readable input for the pipeline: either a file on disk
// or an already-open reader.
type Source struct {
	// Name identifies the source in logs and errors.
	Name string
	// Path is set for file-backed sources.
	Path string
	// Reader is set for stream sources.
	Reader io.Reader
}

// Open returns a reader for the source. File-backed sources are opened
// fresh; stream sources are returned as-is.
func (s Source) Open() (io.ReadCloser, error) {
	if s.Reader != nil {
		return io.NopCloser(s.Reader), nil
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", s.Name, err)
	}
	return f, nil
}

// Options controls input resolution.
type Options struct {
	// FileFormat is the extension collected from directories, e.g. ".csv".
	FileFormat string
	// IncludeSubfolders makes directory resolution recurse depth-first.
	IncludeSubfolders bool
}

// Resolve turns a mixed input into an ordered list of sources.
//
// Accepted inputs: a path (file or directory), an io.Reader, a Source,
// or a slice of any of those (nested slices flatten recursively,
// preserving encounter order). Directories contribute their entries
// matching Options.FileFormat.
//
// Resolve fails with an INVALID_INPUT error for unrecognized elements
// and paths that are neither file nor directory, and with EMPTY_INPUT
// when nothing resolves.
func Resolve(input any, opts Options) ([]Source, error) {
	sources, err := resolve(input, opts)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, apperrors.NewEmptyInputError("no input files found")
	}
	return sources, nil
}

func resolve(input any, opts Options) ([]Source, error) {
	switch v := input.(type) {
	case nil:
		return nil, apperrors.NewInvalidInputError("cannot interpret nil input", nil)
	case Source:
		return []Source{v}, nil
	case *Source:
		return []Source{*v}, nil
	case string:
		return resolvePath(v, opts)
	case []string:
		var out []Source
		for _, p := range v {
			s, err := resolvePath(p, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		}
		return out, nil
	case io.Reader:
		return []Source{{Name: "<reader>", Reader: v}}, nil
	}

	// Other slice shapes ([]any, []io.Reader, [][]string, ...) flatten
	// element by element.
	rv := reflect.ValueOf(input)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		var out []Source
		for i := 0; i < rv.Len(); i++ {
			s, err := resolve(rv.Index(i).Interface(), opts)
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		}
		return out, nil
	}

	return nil, apperrors.NewInvalidInputError(
		fmt.Sprintf("cannot interpret input of type %T", input), nil)
}

func resolvePath(path string, opts Options) ([]Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("%q is neither an existing file nor a directory", path), err)
	}
	if !info.IsDir() {
		return []Source{{Name: path, Path: path}}, nil
	}
	return scanDir(path, opts)
}

// scanDir collects matching files from a directory in name order and,
// when requested, recurses depth-first into subdirectories.
func scanDir(dir string, opts Options) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var out []Source
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(strings.ToLower(name), strings.ToLower(opts.FileFormat)) {
			p := filepath.Join(dir, name)
			out = append(out, Source{Name: p, Path: p})
		}
	}

	if opts.IncludeSubfolders {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			sub, err := scanDir(filepath.Join(dir, entry.Name()), opts)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}

	return out, nil
}
