package logging

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRotatingWriter_CreatesFile(t *testing.T) {
	t.Run("creates file and parent directories", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "state", "logs", "tsm.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if _, err := os.Stat(logPath); err != nil {
			t.Errorf("log file missing: %v", err)
		}
	})

	t.Run("appends to an existing file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "tsm.log")
		if err := os.WriteFile(logPath, []byte("earlier run\n"), 0644); err != nil {
			t.Fatalf("seed log file: %v", err)
		}

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter: %v", err)
		}
		if _, err := rw.Write([]byte("this run\n")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		_ = rw.Close()

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if !strings.Contains(string(content), "earlier run") {
			t.Error("existing content was lost")
		}
		if !strings.Contains(string(content), "this run") {
			t.Error("new content was not appended")
		}
	})
}

func TestRotatingWriter_TracksSize(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")
	seed := []byte("earlier run\n")
	if err := os.WriteFile(logPath, seed, 0644); err != nil {
		t.Fatalf("seed log file: %v", err)
	}

	rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer func() { _ = rw.Close() }()

	// The starting size comes from the existing file.
	if got := rw.CurrentSize(); got != int64(len(seed)) {
		t.Errorf("CurrentSize() = %d, want %d", got, len(seed))
	}

	line := []byte("tick completed\n")
	if _, err := rw.Write(line); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := rw.CurrentSize(); got != int64(len(seed)+len(line)) {
		t.Errorf("CurrentSize() = %d, want %d", got, len(seed)+len(line))
	}
}

func TestRotatingWriter_RotatesAtLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	// Drop the threshold to something a test can reach quickly.
	rw.max = 100

	for i := 0; i < 5; i++ {
		_, _ = rw.Write([]byte("a log line long enough to push the file over the cap\n"))
	}
	_ = rw.Close()

	backup, err := os.ReadFile(logPath + ".1")
	if err != nil {
		t.Fatalf("backup .1 missing: %v", err)
	}
	if len(backup) == 0 {
		t.Error("backup .1 is empty")
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("live log file missing after rotation: %v", err)
	}
}

func TestRotatingWriter_KeepsConfiguredBackups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	rw.max = 50

	for i := 0; i < 10; i++ {
		_, _ = rw.Write([]byte("a line that forces frequent rotation\n"))
	}
	_ = rw.Close()

	for _, n := range []int{1, 2} {
		if _, err := os.Stat(fmt.Sprintf("%s.%d", logPath, n)); err != nil {
			t.Errorf("backup .%d missing: %v", n, err)
		}
	}
	if _, err := os.Stat(logPath + ".3"); err == nil {
		t.Error("backup .3 exists beyond MaxBackups")
	}
}

func TestRotatingWriter_NoBackupsDropsFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: 0})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	rw.max = 50

	for i := 0; i < 10; i++ {
		_, _ = rw.Write([]byte("a line that forces frequent rotation\n"))
	}
	_ = rw.Close()

	if _, err := os.Stat(logPath + ".1"); err == nil {
		t.Error("backup .1 exists although MaxBackups is 0")
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("live log file missing: %v", err)
	}
}

func TestRotatingWriter_ZeroSizeDisablesRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 0, MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}

	for i := 0; i < 100; i++ {
		_, _ = rw.Write([]byte("a line that would rotate if rotation were enabled\n"))
	}
	_ = rw.Close()

	if _, err := os.Stat(logPath + ".1"); err == nil {
		t.Error("backup exists although rotation is disabled")
	}
}

func TestRotatingWriter_CompressesBackups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: 3, Compress: true})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	rw.max = 50

	// Two writes: the first fits, the second triggers one rotation.
	for i := 0; i < 2; i++ {
		_, _ = rw.Write([]byte("a compressible line of log output\n"))
	}
	_ = rw.Close()

	// Compression runs off the write path and removes the plain backup
	// as its final step, so poll for that removal.
	gzPath := logPath + ".1.gz"
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if _, err := os.Stat(logPath + ".1"); err == nil {
		t.Skip("compression did not finish in time")
	}

	gzFile, err := os.Open(gzPath)
	if err != nil {
		t.Fatalf("open compressed backup: %v", err)
	}
	defer func() { _ = gzFile.Close() }()

	gzReader, err := gzip.NewReader(gzFile)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer func() { _ = gzReader.Close() }()

	content, err := io.ReadAll(gzReader)
	if err != nil {
		t.Fatalf("read compressed backup: %v", err)
	}
	if !strings.Contains(string(content), "compressible line") {
		t.Errorf("compressed backup content = %q", content)
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: 100})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	rw.max = 2000

	var wg sync.WaitGroup
	const goroutines = 10
	const writesEach = 50
	for i := 0; i < goroutines; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < writesEach; j++ {
				if _, err := rw.Write([]byte("concurrent log line\n")); err != nil {
					t.Errorf("goroutine %d write %d: %v", i, j, err)
				}
			}
		}()
	}
	wg.Wait()
	_ = rw.Close()

	// Every line landed either in the live file or in a backup.
	totalLines := 0
	if content, err := os.ReadFile(logPath); err == nil {
		totalLines += strings.Count(string(content), "\n")
	}
	for i := 1; i <= 100; i++ {
		if content, err := os.ReadFile(fmt.Sprintf("%s.%d", logPath, i)); err == nil {
			totalLines += strings.Count(string(content), "\n")
		}
	}
	if want := goroutines * writesEach; totalLines != want {
		t.Errorf("found %d lines across live and rotated files, want %d", totalLines, want)
	}
}

func TestRotatingWriter_Close(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	_, _ = rw.Write([]byte("closing soon\n"))

	if err := rw.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := rw.Write([]byte("too late\n")); err == nil {
		t.Error("Write after Close succeeded")
	}
}

func TestRotatingWriter_Sync(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsm.log")

	rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer func() { _ = rw.Close() }()

	_, _ = rw.Write([]byte("flush me\n"))
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "flush me") {
		t.Error("content missing after Sync")
	}
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	if cfg.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want 10", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("MaxBackups = %d, want 3", cfg.MaxBackups)
	}
	if cfg.Compress {
		t.Error("Compress = true, want false")
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	t.Run("creates the log file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "tsm.log")

		logger, err := NewLoggerWithRotation(logPath, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		defer func() { _ = logger.Close() }()

		if _, err := os.Stat(logPath); err != nil {
			t.Errorf("log file missing: %v", err)
		}
	})

	t.Run("entries land in the file as JSON", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "tsm.log")

		logger, err := NewLoggerWithRotation(logPath, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		logger.Info("replica change applied", "service", "web")
		_ = logger.Close()

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		var entry map[string]any
		if err := json.Unmarshal(content, &entry); err != nil {
			t.Fatalf("parse log entry: %v", err)
		}
		if entry["msg"] != "replica change applied" {
			t.Errorf("msg = %v", entry["msg"])
		}
		if entry["service"] != "web" {
			t.Errorf("service = %v", entry["service"])
		}
	})

	t.Run("empty path logs to stderr without a writer", func(t *testing.T) {
		logger, err := NewLoggerWithRotation("", LevelInfo, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		defer func() { _ = logger.Close() }()

		if logger.writer != nil {
			t.Error("writer set although path is empty")
		}
	})

	t.Run("rotation happens through the logger", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "tsm.log")

		logger, err := NewLoggerWithRotation(logPath, LevelDebug, RotationConfig{MaxBackups: 3})
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		logger.writer.max = 200

		for i := 0; i < 10; i++ {
			logger.Info("a log entry long enough to roll the file", "iteration", i)
		}
		_ = logger.Close()

		if _, err := os.Stat(logPath + ".1"); err != nil {
			t.Errorf("backup missing after rotation: %v", err)
		}
	})

	t.Run("child loggers share the writer", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "tsm.log")

		logger, err := NewLoggerWithRotation(logPath, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		defer func() { _ = logger.Close() }()

		child := logger.WithTick("tick-123").WithService("web")
		if child.writer != logger.writer {
			t.Error("child logger has its own writer")
		}
	})
}
