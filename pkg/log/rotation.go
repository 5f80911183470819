// Log file rotation support for gcode-slowdown
//
// Provides size-based log file rotation with gzip-compressed backups.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// RotatingFileWriter implements io.Writer with automatic file rotation.
type RotatingFileWriter struct {
	mu          sync.Mutex
	filename    string
	maxSize     int64 // bytes before rotation
	maxBackups  int
	compress    bool
	currentSize int64
	file        *os.File
	now         func() time.Time
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// Filename is the path to the log file.
	Filename string

	// MaxSize is the maximum size in megabytes before rotation.
	// Default is 10 MB.
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain.
	// Default is 5.
	MaxBackups int

	// Compress gzips rotated files.
	Compress bool
}

// NewRotatingFileWriter opens (or creates) the log file for appending.
func NewRotatingFileWriter(config RotationConfig) (*RotatingFileWriter, error) {
	if config.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	maxSize := config.MaxSize
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := config.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}

	w := &RotatingFileWriter{
		filename:   config.Filename,
		maxSize:    int64(maxSize) * 1024 * 1024,
		maxBackups: maxBackups,
		compress:   config.Compress,
		now:        time.Now,
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) openFile() error {
	if err := os.MkdirAll(filepath.Dir(w.filename), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(w.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.currentSize = info.Size()
	return nil
}

// Write implements io.Writer.
func (w *RotatingFileWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentSize > 0 && w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %w", err)
		}
	}

	n, err = w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

// rotate renames the current file to <base>.<timestamp><ext> and reopens.
// Called with w.mu held.
func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close current file: %w", err)
	}

	ext := filepath.Ext(w.filename)
	base := strings.TrimSuffix(w.filename, ext)
	rotatedName := fmt.Sprintf("%s.%s%s", base, w.now().Format("20060102-150405.000"), ext)

	if err := os.Rename(w.filename, rotatedName); err != nil {
		if reopenErr := w.openFile(); reopenErr != nil {
			return fmt.Errorf("rename log file: %w (reopen: %v)", err, reopenErr)
		}
		return fmt.Errorf("rename log file: %w", err)
	}

	if w.compress {
		if err := compressFile(rotatedName); err != nil {
			fmt.Fprintf(os.Stderr, "log: compress %s: %v\n", rotatedName, err)
		}
	}
	w.cleanOldBackups()

	return w.openFile()
}

// compressFile replaces filename with filename.gz.
func compressFile(filename string) error {
	src, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filename + ".gz")
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		dst.Close()
		os.Remove(filename + ".gz")
		return err
	}
	if err := gz.Close(); err != nil {
		dst.Close()
		os.Remove(filename + ".gz")
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	src.Close()
	return os.Remove(filename)
}

// cleanOldBackups removes the oldest backups exceeding maxBackups.
// Timestamped names sort chronologically, so name order is age order.
func (w *RotatingFileWriter) cleanOldBackups() {
	backups := w.Backups()
	for len(backups) > w.maxBackups {
		os.Remove(backups[0])
		backups = backups[1:]
	}
}

// Backups returns the rotated files for this log, oldest first.
func (w *RotatingFileWriter) Backups() []string {
	dir := filepath.Dir(w.filename)
	base := filepath.Base(w.filename)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if name == base || !strings.HasPrefix(name, prefix) {
			continue
		}
		if isRotatedFile(strings.TrimPrefix(name, prefix), ext) {
			backups = append(backups, filepath.Join(dir, name))
		}
	}
	sort.Strings(backups)
	return backups
}

// isRotatedFile matches "YYYYMMDD-HHMMSS.mmm<ext>[.gz]".
func isRotatedFile(rest, ext string) bool {
	rest = strings.TrimSuffix(rest, ".gz")
	rest = strings.TrimSuffix(rest, ext)
	_, err := time.Parse("20060102-150405.000", rest)
	return err == nil
}

// Close closes the rotating file writer.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// CurrentSize returns the current file size.
func (w *RotatingFileWriter) CurrentSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentSize
}

// Filename returns the current log filename.
func (w *RotatingFileWriter) Filename() string {
	return w.filename
}

// NewConsoleAndFileLogger creates a logger that writes to both console and a
// rotating file. A nil console means stderr.
func NewConsoleAndFileLogger(prefix string, console io.Writer, config RotationConfig) (*Logger, *RotatingFileWriter, error) {
	fileWriter, err := NewRotatingFileWriter(config)
	if err != nil {
		return nil, nil, err
	}
	if console == nil {
		console = os.Stderr
	}

	logger := New(prefix)
	logger.SetWriter(io.MultiWriter(console, fileWriter))
	logger.SetColorize(false) // escape codes would end up in the file

	return logger, fileWriter, nil
}
