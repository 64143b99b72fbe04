package store

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/rs/xid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"picshield/pkg/raster"
)

const (
	UploadDir    = "uploads"
	ProcessedDir = "processed"
)

// New prepares the upload and processed directories on fs.
func New(fs afero.Fs, logger *zap.Logger) (*Store, error) {
	for _, dir := range []string{UploadDir, ProcessedDir} {
		if exists, err := afero.DirExists(fs, dir); err != nil {
			return nil, err
		} else if !exists {
			if err := fs.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
			logger.With(zap.String("dir", dir)).Debug("created")
		}
	}

	return &Store{fs: fs, log: logger}, nil
}

type Store struct {
	fs  afero.Fs
	log *zap.Logger
}

// SaveUpload keeps an incoming file under a unique, time ordered name and
// returns that name.
func (s *Store) SaveUpload(original string, bs []byte) (string, error) {
	name := s.UniqueName(original)

	if err := WriteAtomic(s.fs, path.Join(UploadDir, name), bs); err != nil {
		return "", err
	}

	s.log.With(zap.String("name", name), zap.Int("size", len(bs))).Debug("upload saved")
	return name, nil
}

// UniqueName prefixes the base of original with a fresh xid, which sorts by
// creation time.
func (s *Store) UniqueName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = "image"
	}
	return xid.New().String() + "-" + base
}

func (s *Store) ReadUpload(name string) ([]byte, error) {
	return s.read(UploadDir, name)
}

func (s *Store) RemoveUpload(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.fs.Remove(path.Join(UploadDir, name))
}

func (s *Store) WriteProcessed(name string, bs []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return WriteAtomic(s.fs, path.Join(ProcessedDir, name), bs)
}

func (s *Store) ReadProcessed(name string) ([]byte, error) {
	return s.read(ProcessedDir, name)
}

func (s *Store) read(dir, name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	bs, err := afero.ReadFile(s.fs, path.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return bs, nil
}

// List returns processed images, newest first.
func (s *Store) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, ProcessedDir)
	if err != nil {
		return nil, err
	}

	infos = lo.Filter(infos, func(fi os.FileInfo, _ int) bool {
		return fi.Mode().IsRegular() && !strings.HasPrefix(fi.Name(), ".") &&
			raster.FormatOf(fi.Name()) != ""
	})

	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].ModTime().Equal(infos[j].ModTime()) {
			return infos[i].ModTime().After(infos[j].ModTime())
		}
		return infos[i].Name() > infos[j].Name()
	})

	return lo.Map(infos, func(fi os.FileInfo, _ int) string {
		return fi.Name()
	}), nil
}
