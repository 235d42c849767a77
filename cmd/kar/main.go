// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/gbm/utility/kar"
)

var currentUserName = lookupUserName()

func lookupUserName() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}

var (
	author   = flag.String("author", currentUserName, "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the archive given")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the contents of the archive given")
	dstFile  = flag.String("f", "out.kar", "Destination file when compressing, destination folder when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal("only one operation at a time")
	}

	var err error
	switch {
	case *extract != "":
		err = extractFiles(*extract, *dstFile)
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *list != "":
		err = listFiles(*list)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		if err := addFile(karBuilder, src, ftc); err != nil {
			return err
		}
		log.WithField("file", ftc).Info("added")
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := karBuilder.WriteTo(f)
	if err != nil {
		f.Close()
		return err
	}
	log.WithFields(log.Fields{
		"file":  dst,
		"bytes": written,
	}).Info("archive written")
	return f.Close()
}

// addFile stores path under its name relative to root
func addFile(b *kar.Builder, root, path string) error {
	name, err := filepath.Rel(root, path)
	if err != nil || name == "." {
		name = filepath.Base(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.Add(filepath.ToSlash(name), f, nil)
}

func extractFiles(src, dst string) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, entry := range ar.Header().Index {
		target := filepath.Join(dst, filepath.FromSlash(entry.Name))
		if !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: refusing to extract outside of %s", entry.Name, dst)
		}
		data, err := ar.ReadAll(entry.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		log.WithField("file", target).Info("extracted")
	}
	return nil
}

func listFiles(src string) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	header := ar.Header()
	fmt.Printf("author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	for _, entry := range header.Index {
		fmt.Printf("%10d %10d %s", entry.Size, entry.CompressedSize, entry.Name)
		if len(entry.Meta) > 0 {
			fmt.Printf(" %v", entry.Meta)
		}
		fmt.Println()
	}
	return nil
}
