// Package fsxlocal stores files under a directory on local disk.
package fsxlocal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Abraxas-365/superagent/pkg/fsx"
)

type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem creates basePath if needed.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", basePath)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", basePath)
	}
	return &LocalFileSystem{basePath: abs}, nil
}

func (l *LocalFileSystem) BasePath() string { return l.basePath }

func (l *LocalFileSystem) resolve(p string) (string, error) {
	key, err := fsx.Clean(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.basePath, filepath.FromSlash(key)), nil
}

func (l *LocalFileSystem) ReadFile(_ context.Context, p string) ([]byte, error) {
	full, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fsx.ErrRegistry.New(fsx.ErrNotFound).WithDetail("path", p)
	}
	if err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	return data, nil
}

func (l *LocalFileSystem) Exists(_ context.Context, p string) (bool, error) {
	full, err := l.resolve(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	return true, nil
}

func (l *LocalFileSystem) WriteFile(ctx context.Context, p string, data []byte) error {
	return l.write(p, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

func (l *LocalFileSystem) WriteFileStream(_ context.Context, p string, r io.Reader) error {
	return l.write(p, func(f *os.File) error {
		_, err := io.Copy(f, r)
		return err
	})
}

// write goes through a temp file so readers never see partial content.
func (l *LocalFileSystem) write(p string, fill func(*os.File) error) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	if err := tmp.Close(); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	return nil
}

// DeleteFile is a no-op for missing files.
func (l *LocalFileSystem) DeleteFile(_ context.Context, p string) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	return nil
}
