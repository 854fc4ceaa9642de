package fs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mit-pdos/blockfs/common"
)

// Resolve walks an absolute path from the root. Every component but the
// last must name a directory; a file in the middle of a path fails with
// ErrNotDir.
func (fsys *Filesys) Resolve(path string) (common.Inum, error) {
	if path == "/" {
		return common.ROOTINUM, nil
	}
	cur := common.ROOTINUM
	for _, name := range strings.Split(path, "/") {
		if name == "" {
			continue
		}
		next, err := fsys.dirs.Lookup(cur, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return common.NULLINUM, fmt.Errorf("%s: %w", path, ErrNotFound)
			}
			if errors.Is(err, ErrNotDir) {
				return common.NULLINUM, fmt.Errorf("%s: %w", path, ErrNotDir)
			}
			return common.NULLINUM, err
		}
		cur = next
	}
	return cur, nil
}

// splitPath separates an absolute path into its parent directory and final
// name.
func splitPath(path string) (string, string, error) {
	trimmed := strings.TrimRight(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return "", "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	parent, name := trimmed[:i], trimmed[i+1:]
	if parent == "" {
		parent = "/"
	}
	if name == "" || name == "." || name == ".." {
		return "", "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	if uint64(len(name)) > common.NAMELEN {
		return "", "", fmt.Errorf("%q: name longer than %d bytes: %w", name, common.NAMELEN, ErrInvalidPath)
	}
	return parent, name, nil
}

func (fsys *Filesys) parentDir(path string) (common.Inum, string, error) {
	ppath, name, err := splitPath(path)
	if err != nil {
		return common.NULLINUM, "", err
	}
	pinum, err := fsys.Resolve(ppath)
	if err != nil {
		return common.NULLINUM, "", err
	}
	return pinum, name, nil
}

func (fsys *Filesys) checkAbsent(pinum common.Inum, name string, path string) error {
	_, err := fsys.dirs.Lookup(pinum, name)
	if err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if errors.Is(err, ErrNotDir) {
		return fmt.Errorf("%s: %w", path, ErrNotDir)
	}
	return err
}
