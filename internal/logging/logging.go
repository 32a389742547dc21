package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled lines to a rotated file under ~/.autocommit and,
// when verbose, echoes them to stderr. A nil *Logger discards everything,
// so callers never have to guard their log calls.
type Logger struct {
	file    io.Writer
	verbose bool
}

func New(verbose bool) *Logger {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Logger{file: io.Discard, verbose: verbose}
	}
	return &Logger{
		file: &lumberjack.Logger{
			Filename:   filepath.Join(home, ".autocommit", "autocommit.log"),
			MaxSize:    5, // megabytes
			MaxBackups: 2,
		},
		verbose: verbose,
	}
}

// NewWriter builds a logger that writes to w. Used by tests.
func NewWriter(w io.Writer, verbose bool) *Logger {
	return &Logger{file: w, verbose: verbose}
}

func (l *Logger) Debugf(format string, args ...any) { l.logf("DEBUG", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf("INFO", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf("WARN", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf("ERROR", format, args...) }

func (l *Logger) logf(level, format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), level, strings.TrimRight(msg, "\n"))
	if _, err := io.WriteString(l.file, line); err != nil && l.verbose {
		fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
	}
	if l.verbose {
		fmt.Fprint(os.Stderr, line)
	}
}
