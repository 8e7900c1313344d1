// Package files stores uploaded material files on the local disk.
package files

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/material"
)

var (
	// errors
	ErrFileNotFound = errors.New("file not found")
)

const pdfContentType = "application/pdf"

// DiskStore keeps files flat in one directory under random names.
type DiskStore struct {
	dir     string
	maxSize int64
}

var _ material.FileStore = (*DiskStore)(nil) // interface compliance check

// NewDiskStore creates the upload directory if needed. A relative dir is resolved against conf.WorkDir.
func NewDiskStore(conf *core.Config) (*DiskStore, error) {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.StringNotEmpty(conf.Uploads.Dir, "conf.Uploads.Dir"),
	).CheckAndPanic()

	dir := conf.Uploads.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(conf.WorkDir, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload dir")
	}
	return &DiskStore{dir: dir, maxSize: conf.Uploads.MaxSize}, nil
}

func (s *DiskStore) Dir() string {
	return s.dir
}

// Save sniffs the content type and copies the upload to "<uuid>.pdf".
func (s *DiskStore) Save(ctx context.Context, upload material.Upload) (material.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return material.StoredFile{}, err
	}

	rdr := bufio.NewReaderSize(upload.Content, 512)
	head, err := rdr.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return material.StoredFile{}, errors.Wrap(err, "reading upload")
	}
	if http.DetectContentType(head) != pdfContentType {
		return material.StoredFile{}, material.ErrNotPDF
	}

	name := uuid.New().String() + ".pdf"
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			// the upload dir is created at start up, no upload can succeed without it
			return material.StoredFile{}, errors.Wrap(core.NewShutdownError("upload directory "+s.dir+" is missing"), "creating file")
		}
		return material.StoredFile{}, errors.Wrap(err, "creating file")
	}

	var src io.Reader = rdr
	if s.maxSize > 0 {
		src = io.LimitReader(rdr, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = material.ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if err == material.ErrFileTooLarge {
			return material.StoredFile{}, err
		}
		return material.StoredFile{}, errors.Wrap(err, "writing file")
	}
	return material.StoredFile{Filename: name, Path: path}, nil
}

// Remove deletes the file at path. A missing file is not an error.
func (s *DiskStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

// Path resolves a stored file name to its location, refusing anything outside the upload dir.
func (s *DiskStore) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", ErrFileNotFound
	}
	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}
	return path, nil
}

func (s *DiskStore) Sweep(keep map[string]struct{}, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.Wrap(err, "listing upload dir")
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := keep[entry.Name()]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(olderThan) {
			continue
		}
		if err = os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrap(err, "removing orphan file")
		}
		removed++
	}
	return removed, nil
}
