package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logTimeLayout = "2006-01-02 15:04:05.000"

// loggerNames lists the named loggers used throughout kvsd
var loggerNames = []string{"protocol", "rpc", "transport/rpc"}

// levelNames is the one set of level names kvsd accepts and prints
var levelNames = []struct {
	level logger.LogLevel
	name  string
}{
	{logger.DEBUG, "debug"},
	{logger.INFO, "info"},
	{logger.WARNING, "warn"},
	{logger.ERROR, "error"},
	{logger.CRITICAL, "critical"},
}

var (
	output         = &logSink{w: os.Stdout}
	installFactory sync.Once
)

// --------------------------------------------------------------------------
// Log Sink
// --------------------------------------------------------------------------

// logSink serializes log lines of all loggers onto one writer. The writer
// can be swapped at runtime.
type logSink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

func (s *logSink) setOutput(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.w.(*lumberjack.Logger); ok && old != w {
		_ = old.Close()
	}
	s.w = w
}

// write formats "time LEVEL | name | message"
func (s *logSink) write(level logger.LogLevel, name, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = time.Now().AppendFormat(s.buf[:0], logTimeLayout)
	s.buf = fmt.Appendf(s.buf, " %-5s | %-15s | %s\n", strings.ToUpper(LevelName(level)), name, message)
	_, _ = s.w.Write(s.buf)
}

// --------------------------------------------------------------------------
// Named Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

type kvsdLogger struct {
	name  string
	mu    sync.RWMutex
	level logger.LogLevel
}

func (l *kvsdLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *kvsdLogger) enabled(level logger.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= level
}

func (l *kvsdLogger) logf(level logger.LogLevel, format string, args []interface{}) {
	if l.enabled(level) {
		output.write(level, l.name, fmt.Sprintf(format, args...))
	}
}

func (l *kvsdLogger) Debugf(format string, args ...interface{}) { l.logf(logger.DEBUG, format, args) }
func (l *kvsdLogger) Infof(format string, args ...interface{})  { l.logf(logger.INFO, format, args) }
func (l *kvsdLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args)
}
func (l *kvsdLogger) Errorf(format string, args ...interface{}) { l.logf(logger.ERROR, format, args) }

// Panicf always panics, the message is logged first if critical is enabled
func (l *kvsdLogger) Panicf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if l.enabled(logger.CRITICAL) {
		output.write(logger.CRITICAL, l.name, message)
	}
	panic(message)
}

// CreateLogger implements dragonboats logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &kvsdLogger{name: pkgName, level: logger.INFO}
}

// --------------------------------------------------------------------------
// Level names
// --------------------------------------------------------------------------

// ParseLogLevel converts a level name to logger.LogLevel. An empty name is info.
func ParseLogLevel(name string) (logger.LogLevel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return logger.INFO, nil
	}
	for _, l := range levelNames {
		if l.name == name {
			return l.level, nil
		}
	}
	return 0, errors.Errorf("invalid log level %q (expected one of: debug, info, warn, error, critical)", name)
}

// LevelName returns the name ParseLogLevel accepts for level
func LevelName(level logger.LogLevel) string {
	for _, l := range levelNames {
		if l.level == level {
			return l.name
		}
	}
	return fmt.Sprintf("level(%d)", level)
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the kvsd logger factory and sets the level of all
// kvsd loggers. With a non-empty logFile the output goes to a size rotated
// file instead of stdout. It may be called again to change level or output.
func InitLoggers(level string, logFile string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	if logFile != "" {
		output.setOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	} else {
		output.setOutput(os.Stdout)
	}

	// dragonboat panics if the factory is set twice
	installFactory.Do(func() { logger.SetLoggerFactory(CreateLogger) })

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
