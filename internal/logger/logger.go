package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Environment variable to configure log file path.
const envLogPath = "PREFS_CACHE_LOG"

var (
	mu      sync.Mutex
	std     = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	logFile *os.File
)

// InitFromEnv initializes the logger using PREFS_CACHE_LOG or a default path.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		// Default to the directory where the executable is located
		if exePath, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exePath), "prefs-cache.log")
		} else {
			path = "./prefs-cache.log"
		}
	}
	return Init(path)
}

// Init redirects the logger to the provided file path.
// It creates parent directories if needed and opens the file in append mode.
// Until Init succeeds, messages go to stderr.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		return nil
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	std.SetOutput(f)
	return nil
}

// SetOutput sends subsequent messages to w. It is meant for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// Close closes the underlying log file, if open, and falls back to stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	std.SetOutput(os.Stderr)
	return err
}

// Infof logs informational messages.
func Infof(format string, args ...any) { write("INFO", format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write("WARN", format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write("ERROR", format, args...) }

func write(level string, format string, args ...any) {
	std.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
