// Package shell is the interactive front end: it reads one command per
// line, turns relative paths into absolute ones and prints what the file
// system returns.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/util"
)

type Shell struct {
	fsys *fs.Filesys
	sess *fs.Session
	out  io.Writer
}

func MkShell(fsys *fs.Filesys, out io.Writer) *Shell {
	return &Shell{fsys: fsys, sess: fs.NewSession(), out: out}
}

func (sh *Shell) Prompt() string {
	return fmt.Sprintf("blockfs:%s> ", sh.sess.Path)
}

func (sh *Shell) printf(format string, a ...interface{}) {
	fmt.Fprintf(sh.out, format, a...)
}

func (sh *Shell) abs(p string) string {
	return AbsPath(sh.sess.Path, p)
}

const usage = `commands:
  format
  cd [path]
  ls [path]
  pwd
  mkdir <path>
  touch <path>
  write <path> <text...>
  cat <path>
  rm <path>
  cp <src> <dst>
  mv <src> <dst>
  stat <path>
  fsck
  exit
`

// Run reads commands from in until exit or end of input.
func (sh *Shell) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		sh.printf("%s", sh.Prompt())
		if !scanner.Scan() {
			sh.printf("\n")
			return scanner.Err()
		}
		if sh.Exec(scanner.Text()) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether it was exit.
func (sh *Shell) Exec(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	util.DPrintf(1, "Exec: %v\n", args)
	cmd := args[0]
	var err error
	switch cmd {
	case "exit":
		return true
	case "help":
		sh.printf("%s", usage)
	case "format":
		err = sh.format()
	case "pwd":
		sh.printf("%s\n", sh.sess.Path)
	case "cd":
		p := "/"
		if len(args) > 1 {
			p = args[1]
		}
		err = sh.fsys.Cd(sh.sess, sh.abs(p))
	case "ls":
		p := "."
		if len(args) > 1 {
			p = args[1]
		}
		err = sh.ls(sh.abs(p))
	case "mkdir", "touch", "cat", "rm", "stat":
		if len(args) < 2 {
			sh.printf("usage: %s <path>\n", cmd)
			return false
		}
		err = sh.onePath(cmd, sh.abs(args[1]))
	case "write":
		if len(args) < 3 {
			sh.printf("usage: write <path> <text...>\n")
			return false
		}
		p := sh.abs(args[1])
		var n uint64
		n, err = sh.fsys.Write(p, strings.Join(args[2:], " "))
		if err == nil {
			sh.printf("Wrote %d bytes to '%s'.\n", n, p)
		}
	case "cp", "mv":
		if len(args) < 3 {
			sh.printf("usage: %s <src> <dst>\n", cmd)
			return false
		}
		err = sh.twoPath(cmd, sh.abs(args[1]), sh.abs(args[2]))
	case "fsck":
		err = sh.fsck()
	default:
		sh.printf("Unknown command: %s\n", cmd)
	}
	if err != nil {
		sh.printf("%s: %v\n", cmd, err)
	}
	return false
}

func (sh *Shell) format() error {
	sh.printf("Formatting disk...\n")
	if err := sh.fsys.Format(); err != nil {
		return err
	}
	sh.sess = fs.NewSession()
	sh.printf("Done.\n")
	return nil
}

func (sh *Shell) ls(p string) error {
	ents, err := sh.fsys.Ls(p)
	if err != nil {
		return err
	}
	ip, err := sh.fsys.Stat(p)
	if err != nil {
		return err
	}
	if !ip.IsDir() {
		sh.printf("%s\n", ents[0].Name)
		return nil
	}
	sh.printf("Listing directory: %s\n", p)
	for _, e := range ents {
		suffix := ""
		if e.Mode == inode.Dir {
			suffix = "/"
		}
		sh.printf("  %s%s\n", e.Name, suffix)
	}
	return nil
}

func name(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

func (sh *Shell) onePath(cmd string, p string) error {
	switch cmd {
	case "mkdir":
		if err := sh.fsys.Mkdir(p); err != nil {
			return err
		}
		sh.printf("Directory '%s' created.\n", name(p))
	case "touch":
		if err := sh.fsys.Touch(p); err != nil {
			return err
		}
		sh.printf("File '%s' created.\n", name(p))
	case "cat":
		s, err := sh.fsys.Cat(p)
		if err != nil {
			return err
		}
		if s != "" {
			sh.printf("%s\n", s)
		}
	case "rm":
		if err := sh.fsys.Rm(p); err != nil {
			return err
		}
		sh.printf("Removed '%s'\n", p)
	case "stat":
		ip, err := sh.fsys.Stat(p)
		if err != nil {
			return err
		}
		sh.printf("%s: inode %d, %v, %d bytes, block %d\n", p, ip.Inum, ip.Mode, ip.Size, ip.Blocks[0])
	}
	return nil
}

func (sh *Shell) twoPath(cmd string, src string, dst string) error {
	switch cmd {
	case "cp":
		if err := sh.fsys.Cp(src, dst); err != nil {
			return err
		}
		sh.printf("Copied '%s' to '%s'\n", src, dst)
	case "mv":
		if err := sh.fsys.Mv(src, dst); err != nil {
			return err
		}
		sh.printf("Moved '%s' to '%s'\n", src, dst)
	}
	return nil
}

func (sh *Shell) fsck() error {
	r, err := sh.fsys.Fsck()
	if err != nil {
		return err
	}
	sh.printf("%d inodes, %d data blocks in use; %d inodes, %d blocks free\n",
		r.Inodes, r.Blocks, r.FreeInodes, r.FreeBlocks)
	for _, inum := range r.OrphanInodes {
		sh.printf("orphan inode %d\n", inum)
	}
	for _, bn := range r.OrphanBlocks {
		sh.printf("orphan block %d\n", bn)
	}
	for _, p := range r.Problems {
		sh.printf("%s\n", p)
	}
	if r.Clean() {
		sh.printf("clean\n")
	}
	return nil
}
