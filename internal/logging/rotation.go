package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig controls size-based rotation of the log file.
type RotationConfig struct {
	// MaxSizeMB is the size in megabytes at which the file is rotated.
	// Zero disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files to keep. Zero keeps none.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig returns the rotation settings used when the
// config file does not override them.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  10,
		MaxBackups: 3,
		Compress:   false,
	}
}

// RotatingWriter is an io.Writer that appends to a log file and rotates
// it once it reaches the configured size. Rotated files are named
// path.1 (newest) through path.N (oldest), with a .gz suffix when
// compression is on. Safe for concurrent use.
type RotatingWriter struct {
	mu       sync.Mutex
	path     string
	max      int64 // rotation threshold in bytes, 0 disables
	backups  int
	compress bool
	file     *os.File
	size     int64
}

// NewRotatingWriter opens (or creates) the log file at path, creating
// parent directories as needed.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:     path,
		max:      int64(cfg.MaxSizeMB) * 1024 * 1024,
		backups:  cfg.MaxBackups,
		compress: cfg.Compress,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// open opens the live file for appending and records its size. Caller
// holds the mutex.
func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	rw.file = file
	rw.size = info.Size()
	return nil
}

// Write appends p to the log file, rotating first when the write would
// push the file past the size limit. If rotation fails the write still
// goes to the old file so no log data is lost.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fmt.Errorf("log file is closed")
	}

	if rw.max > 0 && rw.size+int64(len(p)) > rw.max {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate closes the live file, moves it into the backup sequence and
// opens a fresh one. Caller holds the mutex.
func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	rw.file = nil

	if rw.backups <= 0 {
		// No backups are kept, so the full file is simply dropped.
		os.Remove(rw.path)
		return rw.open()
	}

	rw.shiftBackups()

	first := rw.backupPath(1)
	if err := os.Rename(rw.path, first); err != nil {
		if openErr := rw.open(); openErr != nil {
			return fmt.Errorf("rename log file and reopen: %w", openErr)
		}
		return fmt.Errorf("rename log file: %w", err)
	}
	if rw.compress {
		go compressBackup(first)
	}

	return rw.open()
}

// shiftBackups renumbers path.1..path.N-1 to path.2..path.N, dropping
// the oldest backup to make room at path.1. Caller holds the mutex.
func (rw *RotatingWriter) shiftBackups() {
	oldest := rw.backupPath(rw.backups)
	os.Remove(oldest)
	os.Remove(oldest + ".gz")

	for i := rw.backups - 1; i >= 1; i-- {
		from, to := rw.backupPath(i), rw.backupPath(i+1)
		// A backup exists either compressed or plain, never both.
		if _, err := os.Stat(from + ".gz"); err == nil {
			os.Rename(from+".gz", to+".gz")
		} else if _, err := os.Stat(from); err == nil {
			os.Rename(from, to)
		}
	}
}

func (rw *RotatingWriter) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

// compressBackup gzips a rotated file and removes the original. It runs
// off the write path, so failures only warn on stderr and leave the
// uncompressed backup in place.
func compressBackup(path string) {
	src, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: open rotated log %s: %v\n", path, err)
		return
	}
	defer src.Close()

	gzPath := path + ".gz"
	dst, err := os.Create(gzPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: create compressed log %s: %v\n", gzPath, err)
		return
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		os.Remove(gzPath)
		fmt.Fprintf(os.Stderr, "Warning: compress rotated log %s: %v\n", path, err)
		return
	}
	if err := gz.Close(); err != nil {
		os.Remove(gzPath)
		fmt.Fprintf(os.Stderr, "Warning: finalize compressed log %s: %v\n", gzPath, err)
		return
	}

	os.Remove(path)
}

// Sync flushes the live file to disk.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close syncs and closes the live file. Further writes fail.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	rw.file = nil
	return nil
}

// CurrentSize returns the size of the live log file in bytes.
func (rw *RotatingWriter) CurrentSize() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}
