// Package local resolves the file scheme against the host disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/fsbridge/backend/internal/fs"
	"go.uber.org/zap"
)

const scheme = "file"

// Resolver serves file:// locations directly from the operating system.
type Resolver struct {
	logger *zap.Logger
}

// New creates a local resolver.
func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

func (r *Resolver) Scheme() string { return scheme }

func toPath(u *url.URL) (string, error) {
	if u.Path == "" {
		return "", fmt.Errorf("%w: empty path: %s", fs.ErrInvalidLocation, u)
	}
	return filepath.FromSlash(u.Path), nil
}

func typeOf(info iofs.FileInfo) fs.FileType {
	switch {
	case info.Mode()&iofs.ModeSymlink != 0:
		return fs.TypeSymbolicLink
	case info.IsDir():
		return fs.TypeDirectory
	case info.Mode().IsRegular():
		return fs.TypeFile
	default:
		return fs.TypeUnknown
	}
}

// Stat returns metadata without following symlinks. The platform does not
// expose a portable creation time, so ctime reports the modification time.
func (r *Resolver) Stat(ctx context.Context, u *url.URL) (fs.FileStat, error) {
	p, err := toPath(u)
	if err != nil {
		return fs.FileStat{}, err
	}
	info, err := os.Lstat(p)
	if err != nil {
		return fs.FileStat{}, fs.Classify(err)
	}
	mtime := info.ModTime().UnixMilli()
	return fs.FileStat{
		Type:  typeOf(info),
		CTime: mtime,
		MTime: mtime,
		Size:  info.Size(),
	}, nil
}

// List reads the directory and probes each entry's type independently.
// Entries that vanish between the listing and the probe are skipped.
func (r *Resolver) List(ctx context.Context, u *url.URL) ([]fs.DirEntry, error) {
	p, err := toPath(u)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(p)
	if err != nil {
		return nil, fs.Classify(err)
	}

	entries := make([]fs.DirEntry, 0, len(dirents))
	for _, de := range dirents {
		info, err := de.Info()
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				continue
			}
			return nil, fs.Classify(err)
		}
		entries = append(entries, fs.DirEntry{Name: de.Name(), Type: typeOf(info)})
	}
	return entries, nil
}

func (r *Resolver) OpenRead(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	p, err := toPath(u)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fs.Classify(err)
	}
	return f, nil
}

func (r *Resolver) OpenWrite(ctx context.Context, u *url.URL) (io.WriteCloser, error) {
	p, err := toPath(u)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fs.Classify(err)
	}
	return f, nil
}

// Mkdir creates one directory level; a missing parent surfaces as NotFound.
func (r *Resolver) Mkdir(ctx context.Context, u *url.URL) error {
	p, err := toPath(u)
	if err != nil {
		return err
	}
	return fs.Classify(os.Mkdir(p, 0o755))
}

func (r *Resolver) Remove(ctx context.Context, u *url.URL, recursive bool) error {
	p, err := toPath(u)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(p); err != nil {
		return fs.Classify(err)
	}
	if recursive {
		return fs.Classify(os.RemoveAll(p))
	}
	return fs.Classify(os.Remove(p))
}

func (r *Resolver) Rename(ctx context.Context, oldLoc, newLoc *url.URL, overwrite bool) error {
	oldPath, err := toPath(oldLoc)
	if err != nil {
		return err
	}
	newPath, err := toPath(newLoc)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(oldPath); err != nil {
		return fs.Classify(err)
	}
	if _, err := os.Lstat(newPath); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", fs.ErrAlreadyExists, newLoc)
		}
		if err := os.RemoveAll(newPath); err != nil {
			return fs.Classify(err)
		}
	}
	return fs.Classify(os.Rename(oldPath, newPath))
}
