// Package fs implements the file system operations on top of the inode
// table, the directory blocks and the two bitmaps. Every operation goes to
// disk; nothing is cached between calls.
//
// Operations that take several steps (mkdir allocates an inode, then a
// block, then writes both and links the entry) are not atomic with respect
// to crashes. If a step fails with an error, the resources claimed by the
// earlier steps are released before the error is returned; a crash in the
// middle can still leave an orphan, which Fsck reports.
package fs

import (
	"fmt"

	"github.com/mit-pdos/blockfs/alloc"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/super"
	"github.com/mit-pdos/blockfs/util"
)

type Filesys struct {
	super  *super.FsSuper
	itab   *inode.Table
	dirs   *dir.Dirs
	ialloc *alloc.Alloc
	balloc *alloc.Alloc
}

// MkFilesys wraps d without looking at its contents; use Mount to open an
// image that is expected to be formatted.
func MkFilesys(d disk.Disk) *Filesys {
	fs := super.MkFsSuper(d)
	itab := inode.MkTable(fs)
	return &Filesys{
		super:  fs,
		itab:   itab,
		dirs:   dir.MkDirs(d, itab),
		ialloc: alloc.MkAlloc(d, fs.BitmapInodeStart(), fs.NInode),
		balloc: alloc.MkAlloc(d, fs.BitmapBlockStart(), fs.Size),
	}
}

func Mount(d disk.Disk) (*Filesys, error) {
	fsys := MkFilesys(d)
	sb, err := fsys.super.ReadSuper()
	if err != nil {
		return nil, err
	}
	if sb.Magic != common.MAGIC {
		return nil, fmt.Errorf("magic %#x: %w", sb.Magic, ErrBadMagic)
	}
	util.DPrintf(1, "Mount: %+v\n", sb)
	return fsys, nil
}

func (fsys *Filesys) disk() disk.Disk {
	return fsys.super.Disk
}

// Format writes a fresh image: superblock, both bitmaps, the root inode and
// the root directory block. Whatever was on the disk before is unreachable
// afterwards.
func (fsys *Filesys) Format() error {
	util.DPrintf(1, "Format\n")
	d := fsys.disk()
	if err := fsys.super.WriteSuper(); err != nil {
		return err
	}

	// blocks [0, DATASTART] hold metadata and the root directory
	bmap := make(disk.Block, disk.BlockSize)
	for bn := uint64(0); bn <= common.DATASTART; bn++ {
		bmap[bn/8] |= 1 << (bn % 8)
	}
	if err := d.Write(fsys.super.BitmapBlockStart(), bmap); err != nil {
		return err
	}

	// inode 0 is reserved, inode 1 is the root
	imap := make(disk.Block, disk.BlockSize)
	imap[0] |= 1 << common.NULLINUM
	imap[0] |= 1 << common.ROOTINUM
	if err := d.Write(fsys.super.BitmapInodeStart(), imap); err != nil {
		return err
	}

	if err := d.Write(fsys.super.InodeStart(), make(disk.Block, disk.BlockSize)); err != nil {
		return err
	}
	if err := fsys.itab.Write(inode.MkDir(common.ROOTINUM, common.DATASTART)); err != nil {
		return err
	}
	if err := d.Write(common.DATASTART, dir.MkDirBlock(common.ROOTINUM, common.ROOTINUM)); err != nil {
		return err
	}
	return d.Barrier()
}

func (fsys *Filesys) allocInode() (common.Inum, error) {
	n, err := fsys.ialloc.AllocNum()
	if err != nil {
		return common.NULLINUM, fmt.Errorf("no free inodes: %w", err)
	}
	return common.Inum(n), nil
}

func (fsys *Filesys) allocBlock() (common.Bnum, error) {
	n, err := fsys.balloc.AllocNum()
	if err != nil {
		return common.NULLBNUM, fmt.Errorf("no free data blocks: %w", err)
	}
	return common.Bnum(n), nil
}

// Freeing an inode clears its bitmap bit only; the stale record stays in
// the table until the number is handed out again and overwritten.
func (fsys *Filesys) freeInode(inum common.Inum) error {
	return fsys.ialloc.FreeNum(uint64(inum))
}

func (fsys *Filesys) freeBlock(bn common.Bnum) error {
	return fsys.balloc.FreeNum(uint64(bn))
}

// undo releases resources claimed by an operation that failed part way.
func (fsys *Filesys) undo(inum common.Inum, bn common.Bnum) {
	if bn != common.NULLBNUM {
		if err := fsys.freeBlock(bn); err != nil {
			util.DPrintf(0, "undo: free block %d: %v\n", bn, err)
		}
	}
	if inum != common.NULLINUM {
		if err := fsys.freeInode(inum); err != nil {
			util.DPrintf(0, "undo: free inode %d: %v\n", inum, err)
		}
	}
}

// Session is one shell's view of the file system. Its current directory
// lives only in memory and is never written to the image.
type Session struct {
	Cwd  common.Inum
	Path string
}

func NewSession() *Session {
	return &Session{Cwd: common.ROOTINUM, Path: "/"}
}
