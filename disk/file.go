package disk

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

var _ Disk = (*FileDisk)(nil)

// FileDisk stores blocks in a host file, one block per BlockSize bytes.
type FileDisk struct {
	fd        int
	numBlocks uint64
}

// NewFileDisk opens (creating if needed) the image at path and grows it to
// numBlocks blocks.
func NewFileDisk(path string, numBlocks uint64) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if (stat.Mode&unix.S_IFREG) != 0 && uint64(stat.Size) < numBlocks*BlockSize {
		err = unix.Ftruncate(fd, int64(numBlocks*BlockSize))
		if err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("truncate %s: %w", path, err)
		}
	}
	return &FileDisk{fd: fd, numBlocks: numBlocks}, nil
}

func (d *FileDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		return ErrBlockSize
	}
	if a >= d.numBlocks {
		return fmt.Errorf("read at %v: %w", a, ErrOutOfBounds)
	}
	n, err := unix.Pread(d.fd, buf, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("read at %v: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("read at %v: %w", a, io.ErrUnexpectedEOF)
	}
	return nil
}

func (d *FileDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *FileDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("write at %v (%d bytes): %w", a, len(v), ErrBlockSize)
	}
	if a >= d.numBlocks {
		return fmt.Errorf("write at %v: %w", a, ErrOutOfBounds)
	}
	n, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("write at %v: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("write at %v: %w", a, io.ErrShortWrite)
	}
	return nil
}

func (d *FileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *FileDisk) Barrier() error {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	err := unix.Fsync(d.fd)
	if err != nil {
		return fmt.Errorf("file sync failed: %w", err)
	}
	return nil
}

func (d *FileDisk) Close() error {
	return unix.Close(d.fd)
}
