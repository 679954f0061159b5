package chord

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileInclude resolves :include paths against the including file's
// directory, falling back to $PWD for relative paths with no enclosing
// file (spec §6: "$PWD: fallback base for relative :include paths").
type FileInclude struct {
	BaseDir string
}

func NewFileInclude(baseDir string) *FileInclude {
	if baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			baseDir = wd
		}
	}
	return &FileInclude{BaseDir: baseDir}
}

func (f *FileInclude) Read(path string) ([]byte, string, error) {
	resolved := path
	if !filepath.IsAbs(path) {
		resolved = filepath.Join(f.BaseDir, path)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, resolved, errors.Wrapf(err, "reading included file %q", resolved)
	}
	return data, resolved, nil
}
