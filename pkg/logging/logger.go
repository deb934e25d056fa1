// Package logging provides session-scoped file logging for the browser
// daemon and its command-line clients.
//
// Every process run gets a uuid session ID. All components of that run
// append to a single log file named after the session under
// ~/.browserd/logs (overridable with BROWSERD_LOG_DIR), so one daemon run
// reads as one chronological trace. When the log directory cannot be
// created the logger falls back to stderr rather than failing the caller.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EnvLogDir overrides the default log directory when set.
const EnvLogDir = "BROWSERD_LOG_DIR"

// Logger writes leveled, timestamped entries for one component.
// All levels write unconditionally; there is no level filtering.
type Logger struct {
	mu        sync.Mutex
	sessionID string
	component string
	file      *os.File
	out       *log.Logger
	logPath   string
	closeOnce sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	logDir   string
	initOnce sync.Once
	initErr  error
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if dir := os.Getenv(EnvLogDir); dir != "" {
			logDir = dir
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".browserd", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return initErr
}

// NewLogger creates a logger for the named component. The returned logger
// is always usable; when file logging cannot be set up it writes to stderr
// and the error tells the caller it is running in fallback mode.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, sessID+".log")

	// Append mode: the daemon and any helper processes of the same run
	// share one file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		wrapped := fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, wrapped), wrapped
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		out:       log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

// Discard returns a logger whose output is dropped. Components that
// are constructed without a session logger use it instead of checking
// for nil at every call site.
func Discard(component string) *Logger {
	return &Logger{
		component: component,
		out:       log.New(io.Discard, "", 0),
	}
}

func newFallbackLogger(component string, err error) *Logger {
	out := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	out.Printf("WARNING: file logging unavailable, using stderr: %v", err)

	return &Logger{
		sessionID: getSessionID(),
		component: component,
		out:       out,
	}
}

func (l *Logger) logf(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.out.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, fmt.Sprintf(format, v...))
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf("DEBUG", format, v...)
}

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf("INFO", format, v...)
}

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf("WARN", format, v...)
}

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf("ERROR", format, v...)
}

// Writer returns the destination this logger writes to.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// SessionID returns the session ID shared by all loggers of this run.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the log file path, or "" in stderr fallback mode.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
