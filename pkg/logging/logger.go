package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Logger writes DEBUG, INFO and WARN lines to out and ERROR lines to errOut.
// It is safe for concurrent use.
type Logger struct {
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	level       Level
}

func New() *Logger {
	return NewWithLevel(InfoLevel)
}

func NewWithLevel(level Level) *Logger {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

func NewWithWriters(level Level, out, errOut io.Writer) *Logger {
	return &Logger{
		debugLogger: log.New(out, "[DEBUG] ", log.LstdFlags),
		infoLogger:  log.New(out, "[INFO] ", log.LstdFlags),
		warnLogger:  log.New(out, "[WARN] ", log.LstdFlags),
		errorLogger: log.New(errOut, "[ERROR] ", log.LstdFlags),
		level:       level,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriters(ErrorLevel+1, io.Discard, io.Discard)
}

func (l *Logger) enabled(level Level) bool {
	return l.level <= level
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.enabled(DebugLevel) {
		l.debugLogger.Printf(format, args...)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.enabled(InfoLevel) {
		l.infoLogger.Printf(format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.enabled(WarnLevel) {
		l.warnLogger.Printf(format, args...)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l.enabled(ErrorLevel) {
		l.errorLogger.Printf(format, args...)
	}
}

func (l *Logger) IsDebugEnabled() bool {
	return l.enabled(DebugLevel)
}

var DefaultLogger = New()

func Info(format string, args ...interface{}) {
	DefaultLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	DefaultLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	DefaultLogger.Error(format, args...)
}

func Debug(format string, args ...interface{}) {
	DefaultLogger.Debug(format, args...)
}
