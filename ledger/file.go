package ledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const filePerm = 0o644

// appendEntry writes entry to the end of the file at path and syncs it. If
// the file does not end in a newline, one is written first and is not part
// of the returned range; prefixed reports whether that happened. On failure
// the file is truncated back to its original size.
func appendEntry(path string, entry []byte) (r Range, prefixed bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR, filePerm)
	if err != nil {
		return Range{}, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Range{}, false, err
	}
	size := info.Size()

	var buf []byte
	if size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return Range{}, false, err
		}
		if last[0] != '\n' {
			buf = append(buf, '\n')
		}
	}
	start := size + int64(len(buf))
	buf = append(buf, entry...)

	if _, err := f.Seek(size, io.SeekStart); err != nil {
		return Range{}, false, err
	}
	if _, err := f.Write(buf); err != nil {
		return Range{}, false, rollback(f, size, err)
	}
	if err := f.Sync(); err != nil {
		return Range{}, false, rollback(f, size, err)
	}

	return Range{Start: start, End: start + int64(len(entry))}, len(buf) > len(entry), nil
}

func rollback(f *os.File, size int64, cause error) error {
	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("%w (truncating back to %d bytes also failed: %v)", cause, size, err)
	}
	_ = f.Sync()
	return cause
}

// writeFileAtomic replaces the file at path with data by writing a temporary
// file in the same directory and renaming it over the original.
func writeFileAtomic(path string, data []byte) error {
	perm := os.FileMode(filePerm)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
