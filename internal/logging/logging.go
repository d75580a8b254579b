package logging

import (
	"sync"

	"github.com/pion/logging"
)

var (
	loggerFactory = logging.NewDefaultLoggerFactory()

	mu      sync.Mutex
	loggers = map[string]logging.LeveledLogger{}
)

// NewLogger returns the leveled logger for scope, creating it on first use.
// Levels follow the PION_LOG_* environment variables unless SetLevel
// overrides them.
func NewLogger(scope string) logging.LeveledLogger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[scope]; ok {
		return l
	}
	l := loggerFactory.NewLogger(scope)
	loggers[scope] = l
	return l
}

// SetLevel changes the level of every logger created so far and of the ones
// created afterwards.
func SetLevel(level logging.LogLevel) {
	mu.Lock()
	defer mu.Unlock()

	loggerFactory.DefaultLogLevel = level
	for scope := range loggerFactory.ScopeLevels {
		loggerFactory.ScopeLevels[scope] = level
	}
	for _, l := range loggers {
		if dl, ok := l.(*logging.DefaultLeveledLogger); ok {
			dl.SetLevel(level)
		}
	}
}
