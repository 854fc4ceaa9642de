package fs

import (
	"errors"

	"github.com/mit-pdos/blockfs/alloc"
	"github.com/mit-pdos/blockfs/dir"
)

var (
	ErrNotFound = dir.ErrNotFound
	ErrNotDir   = dir.ErrNotDir
	ErrDirFull  = dir.ErrDirFull
	ErrNoSpace  = alloc.ErrNoSpace

	ErrNotFile     = errors.New("not a file")
	ErrExists      = errors.New("file exists")
	ErrNotEmpty    = errors.New("directory not empty")
	ErrRemoveRoot  = errors.New("cannot remove root")
	ErrInvalidPath = errors.New("invalid path")
	ErrBadMagic    = errors.New("image is not formatted")
)
