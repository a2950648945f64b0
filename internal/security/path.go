package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the configured directory
var ErrOutsideRoot = errors.New("path is outside configured directory")

// PathValidator confines tool file access to one directory tree
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// need to exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute configured directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are taken
// relative to the root. The result must lie inside the root, both lexically
// and after following symlinks.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !v.contains(abs) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

// ResolveOutput resolves a path for a file that is about to be written. The
// file itself may not exist, but its parent directory must be inside the root.
func (v *PathValidator) ResolveOutput(path string) (string, error) {
	abs, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	if abs == v.root {
		return "", fmt.Errorf("output path is a directory: %s", path)
	}

	info, err := os.Stat(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("cannot access output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output parent is not a directory: %s", filepath.Dir(abs))
	}
	return abs, nil
}

// contains reports whether abs lies within the root. When the path or the
// root exist on disk, their symlink targets must satisfy the check as well.
func (v *PathValidator) contains(abs string) bool {
	clean := filepath.Clean(abs)
	if !within(clean, v.root) {
		return false
	}

	realRoot := v.root
	if resolved, err := filepath.EvalSymlinks(v.root); err == nil {
		realRoot = resolved
	}

	realPath, err := filepath.EvalSymlinks(clean)
	if err != nil {
		// Not on disk yet: check the nearest existing parent instead
		realPath, err = filepath.EvalSymlinks(filepath.Dir(clean))
		if err != nil {
			return true
		}
		realPath = filepath.Join(realPath, filepath.Base(clean))
	}

	return within(realPath, realRoot) || within(realPath, v.root)
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
