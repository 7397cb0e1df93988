// Package sink serializes generated trees to their target locations.
package sink

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// OutputSink receives rendered files. Paths are slash-separated and
// relative to the sink's root.
type OutputSink interface {
	WriteFile(name string, data []byte) error
}

// ValidatePath rejects absolute and directory-escaping output paths.
func ValidatePath(name string) error {
	if name == "" {
		return fmt.Errorf("empty output path")
	}
	if path.IsAbs(name) || filepath.IsAbs(name) {
		return fmt.Errorf("absolute output path %q", name)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("output path %q escapes the output directory", name)
	}
	return nil
}

// FilesystemSink writes beneath a root directory. Writes are atomic:
// content lands in a temp file that is renamed into place.
type FilesystemSink struct {
	Root string
}

func (s *FilesystemSink) WriteFile(name string, data []byte) error {
	if err := ValidatePath(name); err != nil {
		return err
	}
	target := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".spec2client-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// MemorySink collects rendered files in memory for tests.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *MemorySink) WriteFile(name string, data []byte) error {
	if err := ValidatePath(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = append([]byte(nil), data...)
	return nil
}

// Files returns a copy of everything written so far.
func (s *MemorySink) Files() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.files))
	for name, data := range s.files {
		out[name] = append([]byte(nil), data...)
	}
	return out
}
