package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	errs "tumblrripper/pkg/errors"
)

// PartialSuffix marks a file that is still being written
const PartialSuffix = ".part"

// DefaultChunkSize is the copy buffer size used when none is configured
const DefaultChunkSize = 1024

// Manager owns the download tree: one folder per source under a base
// directory, idempotent existence checks, and temp-then-final writes.
type Manager struct {
	baseDir   string
	chunkSize int
	folders   map[string]string
	mu        sync.Mutex
	saved     atomic.Int64
}

// NewManager creates a new storage manager rooted at baseDir
func NewManager(baseDir string, chunkSize int) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create output directory")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Manager{
		baseDir:   baseDir,
		chunkSize: chunkSize,
		folders:   make(map[string]string),
	}, nil
}

// BaseDir returns the output directory path
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// TargetFolder returns the folder for a source, creating it if needed.
// Creating a folder that already exists is not an error.
func (m *Manager) TargetFolder(source string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if folder, ok := m.folders[source]; ok {
		return folder, nil
	}

	folder := filepath.Join(m.baseDir, source)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create target folder for %s", source)
	}
	m.folders[source] = folder
	return folder, nil
}

// Exists reports whether a regular file is already present at path
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Save streams r into path in chunkSize pieces. Data goes to a partial file
// first and is renamed into place once complete, so path only ever holds a
// finished download. A failed write leaves no partial file behind.
func (m *Manager) Save(path string, r io.Reader) (int64, error) {
	tempFile := path + PartialSuffix
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create temporary file")
	}

	// Plain wrappers keep CopyBuffer from bypassing the chunk buffer.
	buf := make([]byte, m.chunkSize)
	written, err := io.CopyBuffer(struct{ io.Writer }{out}, struct{ io.Reader }{r}, buf)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		var typed *errs.Error
		if errors.As(err, &typed) {
			return written, err
		}
		return written, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to stream media data")
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return written, errs.Wrap(errs.ErrorTypeFilesystem, closeErr, "failed to close file")
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return written, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to rename temporary file")
	}

	m.saved.Add(1)
	return written, nil
}

// Cleanup removes the partial file of path. A finished file at path is left
// alone since it may belong to an earlier run. Failures are ignored.
func (m *Manager) Cleanup(path string) {
	_ = os.Remove(path + PartialSuffix)
}

// SavedCount returns the number of files written by this manager
func (m *Manager) SavedCount() int64 {
	return m.saved.Load()
}

// WriteFile writes a small file in one go, used for dumps
func (m *Manager) WriteFile(name string, data []byte) error {
	path := filepath.Join(m.baseDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to write %s", name)
	}
	return nil
}
