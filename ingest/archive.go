package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Archiver moves finished input files into the processed directory.
type Archiver struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewArchiver returns an Archiver that moves files into dir on fs.
func NewArchiver(fs afero.Fs, dir string) *Archiver {
	return &Archiver{fs: fs, dir: dir, now: time.Now}
}

// Archive moves path into the processed directory and returns its new path.
// An existing file of the same name is never overwritten; the incoming file
// gets a timestamp suffix instead, plus a counter when that is taken too.
func (a *Archiver) Archive(path string) (string, error) {
	if _, err := a.fs.Stat(path); err != nil {
		return "", err
	}
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", a.dir, err)
	}

	dst, err := a.reserve(filepath.Base(path))
	if err != nil {
		return "", err
	}
	if err := a.fs.Rename(path, dst); err == nil {
		return dst, nil
	}
	// rename fails across filesystems; fall back to copy and remove
	if err := a.copy(path, dst); err != nil {
		a.fs.Remove(dst)
		return "", err
	}
	if err := a.fs.Remove(path); err != nil {
		return "", fmt.Errorf("remove %s after copy: %w", path, err)
	}
	return dst, nil
}

// reserve creates an empty placeholder for the first free candidate name so
// no other archive can claim it before the move lands.
func (a *Archiver) reserve(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := filepath.Join(a.dir, strings.TrimSuffix(name, ext))
	stamp := a.now().UTC().Format("20060102T150405")

	for i := 0; ; i++ {
		var dst string
		switch i {
		case 0:
			dst = stem + ext
		case 1:
			dst = fmt.Sprintf("%s-%s%s", stem, stamp, ext)
		default:
			dst = fmt.Sprintf("%s-%s-%d%s", stem, stamp, i, ext)
		}
		f, err := a.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return dst, f.Close()
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("reserve %s: %w", dst, err)
		}
	}
}

func (a *Archiver) copy(src, dst string) error {
	in, err := a.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := a.fs.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
