package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/shell"
	"github.com/mit-pdos/blockfs/util"
)

func main() {
	var path string
	flag.StringVar(&path, "disk", "disk.img", "disk image to open (created if missing)")
	flag.Uint64Var(&util.Debug, "debug", 0, "debug trace level")
	doFormat := flag.Bool("format", false, "format the image before starting")
	flag.Parse()

	d, err := disk.NewFileDisk(path, common.NBLOCK)
	if err != nil {
		log.Fatalf("could not open disk image: %v", err)
	}
	defer d.Close()

	fsys := fs.MkFilesys(d)
	if *doFormat {
		if err := fsys.Format(); err != nil {
			log.Fatalf("format: %v", err)
		}
	} else if _, err := fs.Mount(d); err != nil {
		if !errors.Is(err, fs.ErrBadMagic) {
			log.Fatalf("mount: %v", err)
		}
		fmt.Printf("%s is not formatted; run format first\n", path)
	}

	fmt.Println("blockfs started.")
	sh := shell.MkShell(fsys, os.Stdout)
	if err := sh.Run(os.Stdin); err != nil {
		log.Fatal(err)
	}
	if err := d.Barrier(); err != nil {
		log.Fatal(err)
	}
}
