package runfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is a run file being written. Content goes to a temporary file in
// the target directory; Close renames it into place and Discard removes it.
type File struct {
	path string
	tmp  *os.File
	done bool
}

// CreateFile starts writing a run file at path.
func CreateFile(path string) (*File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create run file: %w", err)
	}
	return &File{path: path, tmp: tmp}, nil
}

// Path returns the final location of the run file.
func (f *File) Path() string {
	return f.path
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	if f.done {
		return 0, fmt.Errorf("run file %s is closed", f.path)
	}
	return f.tmp.Write(p)
}

// Close syncs the content and moves it to the final path.
func (f *File) Close() error {
	if f.done {
		return nil
	}
	f.done = true

	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(f.tmp.Name())
		return fmt.Errorf("failed to sync run file: %w", err)
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(f.tmp.Name())
		return fmt.Errorf("failed to close run file: %w", err)
	}
	if err := os.Chmod(f.tmp.Name(), 0o644); err != nil {
		_ = os.Remove(f.tmp.Name())
		return fmt.Errorf("failed to set run file mode: %w", err)
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		_ = os.Remove(f.tmp.Name())
		return fmt.Errorf("failed to move run file into place: %w", err)
	}
	return nil
}

// Discard drops the content without touching the final path.
func (f *File) Discard() error {
	if f.done {
		return nil
	}
	f.done = true

	_ = f.tmp.Close()
	if err := os.Remove(f.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temporary run file: %w", err)
	}
	return nil
}
