package super

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blockfs/addr"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/util"
)

// Superblock is the on-disk record in block 0 describing the image geometry.
type Superblock struct {
	Magic     uint32
	NBlock    uint32
	NInode    uint32
	DataStart uint32
}

func (sb *Superblock) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt32(sb.Magic)
	enc.PutInt32(sb.NBlock)
	enc.PutInt32(sb.NInode)
	enc.PutInt32(sb.DataStart)
	return enc.Finish()
}

func Decode(blk disk.Block) *Superblock {
	dec := marshal.NewDec(blk)
	sb := &Superblock{}
	sb.Magic = dec.GetInt32()
	sb.NBlock = dec.GetInt32()
	sb.NInode = dec.GetInt32()
	sb.DataStart = dec.GetInt32()
	return sb
}

// FsSuper holds computed values describing the on-disk layout.
type FsSuper struct {
	Disk      disk.Disk
	Size      uint64
	NInode    uint64
	nInodeBlk uint64
}

func MkFsSuper(d disk.Disk) *FsSuper {
	return &FsSuper{
		Disk:      d,
		Size:      common.NBLOCK,
		NInode:    common.NINODE,
		nInodeBlk: util.RoundUp(common.NINODE*common.INODESZ, disk.BlockSize),
	}
}

func (fs *FsSuper) MaxBnum() common.Bnum {
	return common.Bnum(fs.Size)
}

func (fs *FsSuper) BitmapInodeStart() common.Bnum {
	return common.INODEBITMAP
}

func (fs *FsSuper) BitmapBlockStart() common.Bnum {
	return common.BLOCKBITMAP
}

func (fs *FsSuper) InodeStart() common.Bnum {
	return common.INODESTART
}

func (fs *FsSuper) NInodeBlk() uint64 {
	return fs.nInodeBlk
}

func (fs *FsSuper) DataStart() common.Bnum {
	return common.DATASTART
}

func (fs *FsSuper) Inum2Addr(inum common.Inum) addr.Addr {
	return addr.MkRecordAddr(fs.InodeStart(), uint64(inum), common.INODESZ)
}

// Superblock is the record format writes for this geometry.
func (fs *FsSuper) Superblock() *Superblock {
	return &Superblock{
		Magic:     common.MAGIC,
		NBlock:    uint32(fs.Size),
		NInode:    uint32(fs.NInode),
		DataStart: uint32(fs.DataStart()),
	}
}

func (fs *FsSuper) WriteSuper() error {
	util.DPrintf(5, "WriteSuper: %v\n", fs.Superblock())
	return fs.Disk.Write(common.SUPERBLK, fs.Superblock().Encode())
}

func (fs *FsSuper) ReadSuper() (*Superblock, error) {
	blk, err := fs.Disk.Read(common.SUPERBLK)
	if err != nil {
		return nil, err
	}
	return Decode(blk), nil
}
