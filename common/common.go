package common

import (
	"github.com/tchajed/goose/machine/disk"
)

const (
	NBITBLOCK uint64 = disk.BlockSize * 8

	MAGIC uint32 = 0x12345678

	NBLOCK uint64 = 1024 // blocks in an image
	NINODE uint64 = 128

	SUPERBLK    Bnum = 0
	INODEBITMAP Bnum = 1
	BLOCKBITMAP Bnum = 2
	INODESTART  Bnum = 3
	DATASTART   Bnum = 10 // first data block; holds the root directory

	INODESZ  uint64 = 128 // on-disk size
	INODEBLK uint64 = disk.BlockSize / INODESZ
	NDIRECT  uint64 = 12

	DIRENTSZ  uint64 = 64 // on-disk size
	DIRENTBLK uint64 = disk.BlockSize / DIRENTSZ
	NAMELEN   uint64 = DIRENTSZ - 4
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	ROOTINUM Inum = 1
	NULLBNUM Bnum = 0
)
