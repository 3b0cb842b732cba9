// Package safeio provides a root-locked workspace: every path handed to it
// resolves under a fixed directory, and nothing relies on the process working
// directory.
package safeio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the workspace root.
var ErrOutsideRoot = errors.New("safeio: path escapes workspace root")

// Workspace resolves user paths relative to a fixed root and performs file
// operations there. The zero value is unusable; call NewWorkspace.
type Workspace struct {
	rawRoot string // absolute root as given
	absRoot string // absolute root with symlinks resolved
}

// NewWorkspace locks all future operations to the given root directory. The
// directory must already exist; its lifecycle belongs to the caller.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		return nil, errors.New("safeio: empty root")
	}
	raw, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.EvalSymlinks(raw)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: root is not a directory")
	}
	return &Workspace{rawRoot: raw, absRoot: abs}, nil
}

// Root returns the absolute root directory bound to this workspace.
func (w *Workspace) Root() string {
	if w == nil {
		return ""
	}
	return w.absRoot
}

// Resolve maps a user path to an absolute path under the root. The target does
// not need to exist; its nearest existing ancestor is checked for symlink escapes.
func (w *Workspace) Resolve(userPath string) (string, error) {
	if w == nil {
		return "", errors.New("safeio: workspace not configured")
	}
	if strings.TrimSpace(userPath) == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(filepath.FromSlash(userPath))
	if clean == "." {
		return w.absRoot, nil
	}

	var joined string
	switch {
	case isAbs(clean):
		switch {
		case hasPathPrefix(clean, w.absRoot):
			joined = clean
		case hasPathPrefix(clean, w.rawRoot):
			rel, err := filepath.Rel(w.rawRoot, clean)
			if err != nil {
				return "", err
			}
			joined = filepath.Join(w.absRoot, rel)
		default:
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, userPath)
		}
	case clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)):
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, userPath)
	default:
		joined = filepath.Join(w.absRoot, clean)
	}

	resolved, err := w.evalExisting(joined)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(resolved, w.absRoot) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrOutsideRoot, userPath, resolved)
	}
	return resolved, nil
}

// Rel returns userPath relative to the root in slash form. Absolute paths
// inside the root lose the host prefix.
func (w *Workspace) Rel(userPath string) (string, error) {
	p, err := w.Resolve(userPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(w.absRoot, p)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", errors.New("safeio: path is the root")
	}
	return filepath.ToSlash(rel), nil
}

// evalExisting resolves symlinks on the longest existing prefix of p and
// re-attaches the missing tail.
func (w *Workspace) evalExisting(p string) (string, error) {
	var tail []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, tail...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}

// WriteFile writes data to a path under the root, creating parent directories
// and truncating any existing file.
func (w *Workspace) WriteFile(userPath string, data []byte) error {
	p, err := w.Resolve(userPath)
	if err != nil {
		return err
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return errors.New("safeio: path is a directory")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// MkdirAll creates a directory (and parents) under the root.
func (w *Workspace) MkdirAll(userPath string) error {
	p, err := w.Resolve(userPath)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

// ReadFile reads a file relative to the root.
func (w *Workspace) ReadFile(userPath string) ([]byte, error) {
	p, err := w.Resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("safeio: path is a directory")
	}
	return os.ReadFile(p)
}

// Stat returns metadata for a file or directory under the root.
func (w *Workspace) Stat(userPath string) (fs.FileInfo, error) {
	p, err := w.Resolve(userPath)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// IsDir reports whether userPath exists under the root as a directory.
func (w *Workspace) IsDir(userPath string) bool {
	info, err := w.Stat(userPath)
	return err == nil && info.IsDir()
}

// ReadDir lists entries for a directory relative to the root.
func (w *Workspace) ReadDir(userPath string) ([]fs.DirEntry, error) {
	dir, err := w.Resolve(userPath)
	if err != nil {
		return nil, err
	}
	return os.ReadDir(dir)
}

// Open implements fs.FS (names use "/" separators), so a workspace can be
// walked with fs.WalkDir.
func (w *Workspace) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	p, err := w.Resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return os.Open(p)
}

func isAbs(p string) bool {
	return filepath.IsAbs(p) || (runtime.GOOS == "windows" && filepath.VolumeName(p) != "")
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if len(root) == 0 {
		return true
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	if !strings.HasSuffix(path, sep) {
		path += sep
	}
	return strings.HasPrefix(path, root)
}
