package inode

import (
	"errors"
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/super"
	"github.com/mit-pdos/blockfs/util"
)

type Mode uint32

const (
	Unused Mode = 0
	File   Mode = 1
	Dir    Mode = 2
)

func (m Mode) String() string {
	switch m {
	case File:
		return "file"
	case Dir:
		return "directory"
	default:
		return "unused"
	}
}

var ErrBadInum = errors.New("inode number out of range")

type Inode struct {
	Inum   common.Inum
	Mode   Mode
	Size   uint64
	Blocks [common.NDIRECT]common.Bnum
}

func MkFile(inum common.Inum) *Inode {
	return &Inode{Inum: inum, Mode: File}
}

func MkDir(inum common.Inum, blk common.Bnum) *Inode {
	ip := &Inode{Inum: inum, Mode: Dir, Size: disk.BlockSize}
	ip.Blocks[0] = blk
	return ip
}

func (ip *Inode) IsDir() bool {
	return ip.Mode == Dir
}

func (ip *Inode) IsFile() bool {
	return ip.Mode == File
}

func (ip *Inode) String() string {
	return fmt.Sprintf("# %d %v sz %d blks %v", ip.Inum, ip.Mode, ip.Size, ip.Blocks)
}

// Encode lays out mode, size and the direct pointers as 32-bit words at the
// front of an INODESZ record.
func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(uint32(ip.Mode))
	enc.PutInt32(uint32(ip.Size))
	for _, bn := range ip.Blocks {
		enc.PutInt32(uint32(bn))
	}
	return enc.Finish()
}

// Decode never fails: a mode tag it does not know decodes as Unused.
func Decode(data []byte, inum common.Inum) *Inode {
	dec := marshal.NewDec(data)
	ip := &Inode{Inum: inum}
	switch m := Mode(dec.GetInt32()); m {
	case File, Dir:
		ip.Mode = m
	default:
		ip.Mode = Unused
	}
	ip.Size = uint64(dec.GetInt32())
	for i := range ip.Blocks {
		ip.Blocks[i] = common.Bnum(dec.GetInt32())
	}
	return ip
}

// Table reads and writes single records of the inode table. It never
// allocates.
type Table struct {
	fs *super.FsSuper
}

func MkTable(fs *super.FsSuper) *Table {
	return &Table{fs: fs}
}

func (t *Table) checkInum(inum common.Inum) error {
	if inum == common.NULLINUM || uint64(inum) >= t.fs.NInode {
		return fmt.Errorf("inode %d: %w", inum, ErrBadInum)
	}
	return nil
}

func (t *Table) Read(inum common.Inum) (*Inode, error) {
	if err := t.checkInum(inum); err != nil {
		return nil, err
	}
	a := t.fs.Inum2Addr(inum)
	blk, err := t.fs.Disk.Read(a.Blkno)
	if err != nil {
		return nil, err
	}
	b := buf.MkBufLoad(a, common.INODESZ*8, blk)
	ip := Decode(b.Data, inum)
	util.DPrintf(15, "inode.Read: %v\n", ip)
	return ip, nil
}

// Write stores ip in its slot; the other records in the block are kept.
func (t *Table) Write(ip *Inode) error {
	if err := t.checkInum(ip.Inum); err != nil {
		return err
	}
	util.DPrintf(10, "inode.Write: %v\n", ip)
	b := buf.MkBuf(t.fs.Inum2Addr(ip.Inum), common.INODESZ*8, ip.Encode())
	return b.WriteDirect(t.fs.Disk)
}
