package disk

import (
	"fmt"

	"github.com/tchajed/goose/machine/disk"
)

var _ Disk = (*MemDisk)(nil)

// MemDisk keeps blocks in memory; tests run against it.
type MemDisk struct {
	d         disk.Disk
	numBlocks uint64
}

func NewMemDisk(numBlocks uint64) *MemDisk {
	return &MemDisk{d: disk.NewMemDisk(numBlocks), numBlocks: numBlocks}
}

func (d *MemDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		return ErrBlockSize
	}
	if a >= d.numBlocks {
		return fmt.Errorf("read at %v: %w", a, ErrOutOfBounds)
	}
	copy(buf, d.d.Read(a))
	return nil
}

func (d *MemDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *MemDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("write at %v (%d bytes): %w", a, len(v), ErrBlockSize)
	}
	if a >= d.numBlocks {
		return fmt.Errorf("write at %v: %w", a, ErrOutOfBounds)
	}
	d.d.Write(a, v)
	return nil
}

func (d *MemDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return d.numBlocks, nil
}

func (d *MemDisk) Barrier() error { return nil }

func (d *MemDisk) Close() error { return nil }
