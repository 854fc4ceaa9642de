package dir

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/super"
)

func TestEncodeDecode(t *testing.T) {
	de := &DirEnt{Inum: 42, Name: "hello.txt"}
	data := de.Encode()
	assert.Equal(t, int(common.DIRENTSZ), len(data))
	assert.Equal(t, []byte{42, 0, 0, 0}, data[0:4])
	assert.Equal(t, de, Decode(data))
}

func TestNameTruncation(t *testing.T) {
	long := strings.Repeat("x", 70)
	got := Decode((&DirEnt{Inum: 3, Name: long}).Encode())
	assert.Equal(t, long[:common.NAMELEN], got.Name, "names are cut at the record boundary")

	exact := strings.Repeat("y", int(common.NAMELEN))
	got = Decode((&DirEnt{Inum: 3, Name: exact}).Encode())
	assert.Equal(t, exact, got.Name, "a full-width name has no terminator")
}

func TestFreeEntry(t *testing.T) {
	de := Decode(make([]byte, common.DIRENTSZ))
	assert.True(t, de.IsFree())
	assert.Equal(t, "", de.Name)
}

func TestMkDirBlock(t *testing.T) {
	blk := MkDirBlock(5, 1)
	assert.Equal(t, &DirEnt{Inum: 5, Name: "."}, getEnt(blk, 0))
	assert.Equal(t, &DirEnt{Inum: 1, Name: ".."}, getEnt(blk, 1))
	assert.True(t, getEnt(blk, 2).IsFree())
}

type fixture struct {
	d    disk.Disk
	itab *inode.Table
	ds   *Dirs
}

// mkFixture sets up root (inode 1, block 10) and a file at inode 2.
func mkFixture(t *testing.T) *fixture {
	d := disk.NewMemDisk(common.NBLOCK)
	itab := inode.MkTable(super.MkFsSuper(d))
	require.NoError(t, itab.Write(inode.MkDir(common.ROOTINUM, common.DATASTART)))
	require.NoError(t, d.Write(common.DATASTART, MkDirBlock(common.ROOTINUM, common.ROOTINUM)))
	require.NoError(t, itab.Write(inode.MkFile(2)))
	return &fixture{d: d, itab: itab, ds: MkDirs(d, itab)}
}

func TestInsertLookup(t *testing.T) {
	f := mkFixture(t)
	require.NoError(t, f.ds.Insert(common.ROOTINUM, 2, "f"))

	inum, err := f.ds.Lookup(common.ROOTINUM, "f")
	assert.NoError(t, err)
	assert.Equal(t, common.Inum(2), inum)

	inum, err = f.ds.Lookup(common.ROOTINUM, "..")
	assert.NoError(t, err)
	assert.Equal(t, common.ROOTINUM, inum)

	_, err = f.ds.Lookup(common.ROOTINUM, "g")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookupInFile(t *testing.T) {
	f := mkFixture(t)
	_, err := f.ds.Lookup(2, "x")
	assert.True(t, errors.Is(err, ErrNotDir))
	assert.True(t, errors.Is(f.ds.Insert(2, 2, "x"), ErrNotDir))
}

func TestRemoveAndReuse(t *testing.T) {
	f := mkFixture(t)
	require.NoError(t, f.ds.Insert(common.ROOTINUM, 2, "a"))
	require.NoError(t, f.ds.Insert(common.ROOTINUM, 2, "b"))
	require.NoError(t, f.ds.Remove(common.ROOTINUM, "a"))

	_, err := f.ds.Lookup(common.ROOTINUM, "a")
	assert.True(t, errors.Is(err, ErrNotFound))

	blk, err := f.d.Read(common.DATASTART)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, common.DIRENTSZ), []byte(blk[2*common.DIRENTSZ:3*common.DIRENTSZ]),
		"removed entry is zeroed in place")

	require.NoError(t, f.ds.Insert(common.ROOTINUM, 2, "c"))
	blk, err = f.d.Read(common.DATASTART)
	require.NoError(t, err)
	assert.Equal(t, "c", getEnt(blk, 2).Name, "tombstone reused")
	assert.Equal(t, "b", getEnt(blk, 3).Name)
}

func TestRemoveMissing(t *testing.T) {
	f := mkFixture(t)
	before, err := f.d.Read(common.DATASTART)
	require.NoError(t, err)
	assert.NoError(t, f.ds.Remove(common.ROOTINUM, "nope"))
	after, err := f.d.Read(common.DATASTART)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestList(t *testing.T) {
	f := mkFixture(t)
	require.NoError(t, f.itab.Write(inode.MkDir(3, 11)))
	require.NoError(t, f.ds.Insert(common.ROOTINUM, 3, "sub"))
	require.NoError(t, f.ds.Insert(common.ROOTINUM, 2, "file"))

	ents, err := f.ds.List(common.ROOTINUM)
	require.NoError(t, err)
	want := []Entry{
		{Name: ".", Inum: 1, Mode: inode.Dir},
		{Name: "..", Inum: 1, Mode: inode.Dir},
		{Name: "sub", Inum: 3, Mode: inode.Dir},
		{Name: "file", Inum: 2, Mode: inode.File},
	}
	if diff := cmp.Diff(want, ents); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestDirFull(t *testing.T) {
	f := mkFixture(t)
	for i := uint64(2); i < common.DIRENTBLK; i++ {
		require.NoError(t, f.ds.Insert(common.ROOTINUM, 2, fmt.Sprintf("f%d", i)))
	}
	n, err := f.ds.NumLive(common.ROOTINUM)
	require.NoError(t, err)
	assert.Equal(t, common.DIRENTBLK, n)

	err = f.ds.Insert(common.ROOTINUM, 2, "overflow")
	assert.True(t, errors.Is(err, ErrDirFull))

	require.NoError(t, f.ds.Remove(common.ROOTINUM, "f7"))
	assert.NoError(t, f.ds.Insert(common.ROOTINUM, 2, "overflow"), "slot freed by remove")
}

func TestParent(t *testing.T) {
	f := mkFixture(t)
	require.NoError(t, f.itab.Write(inode.MkDir(3, 11)))
	require.NoError(t, f.d.Write(11, MkDirBlock(3, common.ROOTINUM)))
	require.NoError(t, f.itab.Write(inode.MkDir(4, 12)))
	require.NoError(t, f.d.Write(12, MkDirBlock(4, common.ROOTINUM)))

	p, err := f.ds.Parent(4)
	require.NoError(t, err)
	assert.Equal(t, common.ROOTINUM, p)

	require.NoError(t, f.ds.SetParent(4, 3))
	p, err = f.ds.Parent(4)
	require.NoError(t, err)
	assert.Equal(t, common.Inum(3), p)

	self, err := f.ds.Lookup(4, ".")
	require.NoError(t, err)
	assert.Equal(t, common.Inum(4), self, "\".\" untouched")
}
