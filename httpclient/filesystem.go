package httpclient

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
)

// FileSystem lands downloaded files at their destination
type FileSystem interface {
	// Move places the file at from at to. An existing to is never replaced.
	Move(from, to string) error
}

// OSFileSystem moves files on the local disk
type OSFileSystem struct{}

var _ FileSystem = OSFileSystem{}

// Move renames from to to, copying instead when they are on different devices.
// It fails with an error matching fs.ErrExist if to already exists.
func (OSFileSystem) Move(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		return &os.LinkError{Op: "move", Old: from, New: to, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	err := os.Rename(from, to)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyFile(from, to); err != nil {
		return err
	}
	return os.Remove(from)
}

func copyFile(from, to string) (err error) {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	// O_EXCL keeps a file created after the existence check from being clobbered
	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(to)
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s to %s: %w", from, to, err)
	}
	return nil
}
