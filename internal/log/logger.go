// Package log provides a global logger with configurable logging level. The intended use is for
// troubleshooting; logging is disabled unless a command enables it.

package log

import (
	"io"
	"os"
	"sync"
	"time"

	charm "github.com/charmbracelet/log"
)

type Level int

const (
	LevelNone    Level = iota // Disables logging.
	LevelError                // Logs anomalies that are not expected to occur during normal use.
	LevelWarning              // Logs anomalies that are expected to occur occasionally during normal use.
	LevelInfo                 // Logs major events.
	LevelDebug                // Logs detailed IO
)

var globalLogLevel Level
var logMutex sync.Mutex

var backend = charm.NewWithOptions(os.Stderr, charm.Options{
	ReportTimestamp: true,
	TimeFormat:      time.RFC3339,
	Level:           charm.DebugLevel,
})

var charmLevels = map[Level]charm.Level{
	LevelDebug:   charm.DebugLevel,
	LevelInfo:    charm.InfoLevel,
	LevelWarning: charm.WarnLevel,
	LevelError:   charm.ErrorLevel,
}

func SetLevel(level Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	globalLogLevel = level
	if l, ok := charmLevels[level]; ok {
		backend.SetLevel(l)
	}
}

// SetOutput redirects log output, which defaults to os.Stderr.
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	backend.SetOutput(w)
}

func logLevel() Level {
	logMutex.Lock()
	defer logMutex.Unlock()
	return globalLogLevel
}

func log(level Level, format string, a ...interface{}) {
	if level > logLevel() {
		return
	}
	switch level {
	case LevelDebug:
		backend.Debugf(format, a...)
	case LevelInfo:
		backend.Infof(format, a...)
	case LevelWarning:
		backend.Warnf(format, a...)
	case LevelError:
		backend.Errorf(format, a...)
	}
}

func Debug(format string, a ...interface{}) {
	log(LevelDebug, format, a...)
}
func Info(format string, a ...interface{}) {
	log(LevelInfo, format, a...)
}
func Warning(format string, a ...interface{}) {
	log(LevelWarning, format, a...)
}
func Error(format string, a ...interface{}) {
	log(LevelError, format, a...)
}

// Mask stands in for a secret in debug output. Only whether the secret is set is revealed.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
