// Package compressor packs and unpacks driver template packs.
package compressor

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotZip is returned by ZipExists for files without the zip magic.
var ErrNotZip = errors.New("not a zip archive")

// ZipDir zips the contents of srcDir, subdirectories included, into destZip.
// Entry names are relative to srcDir and use forward slashes.
func ZipDir(srcDir, destZip string) error {
	if _, err := os.Stat(srcDir); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destZip), os.ModePerm); err != nil {
		return err
	}
	zipfile, err := os.Create(destZip)
	if err != nil {
		return err
	}
	defer zipfile.Close()

	archive := zip.NewWriter(zipfile)
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			_, err := archive.Create(name + "/")
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w, err := archive.Create(name)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, file)
		return err
	})
	if err != nil {
		archive.Close()
		return err
	}
	return archive.Close()
}

// Unzip extracts srcZip into destDir. Entries that would land outside
// destDir are rejected.
func Unzip(srcZip, destDir string) error {
	r, err := zip.OpenReader(srcZip)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)
		if rel, err := filepath.Rel(destDir, fpath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			return fmt.Errorf("illegal entry %q", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extract(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ZipExists checks that zipLoc exists and starts with the zip magic "PK".
func ZipExists(zipLoc string) error {
	file, err := os.Open(zipLoc)
	if err != nil {
		return err
	}
	defer file.Close()

	header := make([]byte, 2)
	if _, err := io.ReadFull(file, header); err != nil {
		return ErrNotZip
	}
	if header[0] != 'P' || header[1] != 'K' {
		return ErrNotZip
	}
	return nil
}
