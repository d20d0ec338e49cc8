package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"runtime/debug"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Constants
const (
	LogFilePermissions = 0600
	InfoLogLevel       = "info"
	LastLogLines       = 100
)

// Global variables
var (
	globalLogger *zap.Logger
	loggerMutex  sync.RWMutex
	once         sync.Once

	// Global settings
	GlobalEnableConsoleLogger bool
	GlobalEnableFileLogger    bool
	GlobalEnableBufferLogger  bool
	GlobalLogPath             string = "/tmp/sutwire.log"
	GlobalLogLevel            string = InfoLogLevel
	GlobalInstantSync         bool
	GlobalLoggedBuffer        strings.Builder
	GlobalLoggedBufferSize    int = 8192
	GlobalLogFile             *os.File
)

// Logger wraps a *zap.Logger with the formatted/field helpers the rest of
// this module calls through Loggerer.
type Logger struct {
	*zap.Logger
	verbose bool
}

// TestLogger captures log lines in memory instead of writing them out, for
// assertions in package tests.
type TestLogger struct {
	*Logger
	t       *testing.T
	logs    []string
	logLock sync.Mutex
	buffer  *LogBuffer
}

// Initialization functions
func InitLoggerOutputs() {
	GlobalEnableConsoleLogger = false
	GlobalEnableFileLogger = true
	GlobalEnableBufferLogger = true
	GlobalLogPath = "/tmp/sutwire.log"
	GlobalLogLevel = InfoLogLevel
	GlobalInstantSync = false

	if viper.IsSet("logger.log_path") {
		GlobalLogPath = viper.GetString("logger.log_path")
	}
	if viper.IsSet("logger.log_level") {
		GlobalLogLevel = viper.GetString("logger.log_level")
	}
	if viper.IsSet("logger.enable_console") {
		GlobalEnableConsoleLogger = viper.GetBool("logger.enable_console")
	}
	if viper.IsSet("logger.enable_file") {
		GlobalEnableFileLogger = viper.GetBool("logger.enable_file")
	}
	if viper.IsSet("logger.enable_buffer") {
		GlobalEnableBufferLogger = viper.GetBool("logger.enable_buffer")
	}
}

func InitProduction() {
	once.Do(func() {
		if GlobalLogLevel == "" {
			GlobalLogLevel = InfoLogLevel
		}
		logLevel := getZapLevel(GlobalLogLevel)

		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(logLevel)
		var cores []zapcore.Core

		GlobalEnableConsoleLogger = false

		if GlobalEnableFileLogger {
			if fileCore, err := createFileCore(config.Level); err == nil {
				cores = append(cores, fileCore)
			}
		}

		if GlobalEnableBufferLogger {
			cores = append(cores, createBufferCore(config.Level))
		}

		core := zapcore.NewTee(cores...)
		globalLogger = zap.New(core, zap.AddCaller()).Named("sutwire")
	})
}

func createFileCore(level zap.AtomicLevel) (zapcore.Core, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	logFile, err := os.OpenFile(
		GlobalLogPath,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		LogFilePermissions,
	)
	if err != nil {
		return nil, err
	}
	GlobalLogFile = logFile

	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logFile),
		level,
	), nil
}

func createBufferCore(level zap.AtomicLevel) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(&GlobalLoggedBuffer),
		level,
	)
}

func (l *Logger) SetVerbose(verbose bool) {
	l.verbose = verbose
}

func (l *Logger) syncIfNeeded() {
	if GlobalInstantSync {
		_ = l.Sync()
	}
}

func (l *Logger) log(level zapcore.Level, msg string) {
	if tl, ok := interface{}(l).(*TestLogger); ok {
		tl.logLock.Lock()
		tl.logs = append(tl.logs, msg)
		if tl.buffer != nil {
			tl.buffer.AddLine(msg)
		}
		if tl.t != nil {
			tl.t.Log(msg)
		}
		tl.logLock.Unlock()
		return
	}

	if l.Logger != nil && l.Logger.Core().Enabled(level) {
		if ce := l.Logger.Check(level, msg); ce != nil {
			ce.Write()
		}
		l.syncIfNeeded()
	}
}

func (l *Logger) Debug(msg string) { l.log(zapcore.DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.log(zapcore.InfoLevel, msg) }
func (l *Logger) Warn(msg string)  { l.log(zapcore.WarnLevel, msg) }
func (l *Logger) Error(msg string) { l.log(zapcore.ErrorLevel, msg) }
func (l *Logger) Fatal(msg string) { l.log(zapcore.FatalLevel, msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.Fatal(fmt.Sprintf(format, args...)) }

func (l *Logger) DebugWithFields(msg string, fields ...zap.Field) {
	if tl, ok := interface{}(l).(*TestLogger); ok {
		tl.Debug(msg)
		return
	}
	l.Logger.Debug(formatMessage(msg), fields...)
	l.syncIfNeeded()
}

func (l *Logger) InfoWithFields(msg string, fields ...zap.Field) {
	if tl, ok := interface{}(l).(*TestLogger); ok {
		tl.Info(msg)
		return
	}
	l.Logger.Info(formatMessage(msg), fields...)
	l.syncIfNeeded()
}

func (l *Logger) WarnWithFields(msg string, fields ...zap.Field) {
	if tl, ok := interface{}(l).(*TestLogger); ok {
		tl.Warn(msg)
		return
	}
	l.Logger.Warn(formatMessage(msg), fields...)
	l.syncIfNeeded()
}

func (l *Logger) ErrorWithFields(msg string, fields ...zap.Field) {
	if tl, ok := interface{}(l).(*TestLogger); ok {
		tl.Error(msg)
		return
	}
	l.Logger.Error(formatMessage(msg), fields...)
	l.syncIfNeeded()
}

func (tl *TestLogger) GetLogs() []string {
	tl.logLock.Lock()
	defer tl.logLock.Unlock()
	return append([]string{}, tl.logs...)
}

func (tl *TestLogger) Debug(msg string) { tl.log(zapcore.DebugLevel, msg) }
func (tl *TestLogger) Info(msg string)  { tl.log(zapcore.InfoLevel, msg) }
func (tl *TestLogger) Warn(msg string)  { tl.log(zapcore.WarnLevel, msg) }
func (tl *TestLogger) Error(msg string) { tl.log(zapcore.ErrorLevel, msg) }

func formatMessage(msg string) string {
	return strings.TrimPrefix(msg, "sutwire\t")
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("[%s]", t.Format("2006-01-02 15:04:05")))
}

func getZapLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Get returns the process-wide logger, initializing it on first use.
func Get() *Logger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		InitProduction()
	}
	return &Logger{Logger: globalLogger, verbose: false}
}

func SetGlobalLogger(logger interface{}) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	switch l := logger.(type) {
	case *Logger:
		globalLogger = l.Logger
	case *TestLogger:
		globalLogger = nil
	default:
		panic("unsupported logger type")
	}
}

func NewTestLogger(tb zaptest.TestingT) *TestLogger {
	var t *testing.T
	if tt, ok := tb.(*testing.T); ok {
		t = tt
	} else {
		panic("tb does not implement *testing.T")
	}
	return &TestLogger{
		Logger: &Logger{
			Logger:  nil,
			verbose: true,
		},
		t:       t,
		logs:    make([]string, 0),
		logLock: sync.Mutex{},
		buffer:  NewLogBuffer(LastLogLines),
	}
}

func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop(), verbose: false}
}

func LogPanic(rec interface{}) {
	stack := debug.Stack()
	logger := Get()
	logger.ErrorWithFields("PANIC", zap.String("stack", string(stack)))
	_ = logger.Sync()
}

func RecoverAndLog(f func()) {
	defer func() {
		if r := recover(); r != nil {
			LogPanic(r)
			panic(r)
		}
	}()
	f()
}

// LogBuffer maintains a circular buffer of log messages.
type LogBuffer struct {
	lines []string
	size  int
	mu    sync.RWMutex
}

func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = 100
	}
	return &LogBuffer{
		lines: make([]string, 0, size),
		size:  size,
	}
}

var globalLogBuffer = NewLogBuffer(GlobalLoggedBufferSize)

func (lb *LogBuffer) AddLine(line string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if len(lb.lines) >= lb.size {
		lb.lines = lb.lines[1:]
	}
	lb.lines = append(lb.lines, line)
}

func (lb *LogBuffer) GetLastLines(n int) []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(lb.lines) {
		return append([]string{}, lb.lines...)
	}

	return append([]string{}, lb.lines[len(lb.lines)-n:]...)
}

func GetLastLines(n int) []string {
	return globalLogBuffer.GetLastLines(n)
}

func (tl *TestLogger) GetLastLines(n int) []string {
	if tl.buffer == nil {
		return []string{}
	}
	return tl.buffer.GetLastLines(n)
}

func (tl *TestLogger) PrintLogs(t *testing.T) {
	tl.logLock.Lock()
	defer tl.logLock.Unlock()

	t.Log("Captured logs:")
	for i, log := range tl.logs {
		if log != "" {
			t.Logf("[%d] %s", i, log)
		}
	}
}

func (l *Logger) PrintLogs(t *testing.T) {
	t.Log("Captured logs:")
	for i, log := range globalLogBuffer.GetLastLines(LastLogLines) {
		if log != "" {
			t.Logf("[%d] %s", i, log)
		}
	}
}

// Loggerer is the interface the rest of this module depends on, so tests
// can swap in a TestLogger without touching call sites.
type Loggerer interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	SetVerbose(bool)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	PrintLogs(*testing.T)
	With(fields ...zap.Field) Loggerer
}

func (tl *TestLogger) With(fields ...zap.Field) Loggerer {
	return &TestLogger{
		Logger: &Logger{
			Logger:  nil,
			verbose: true,
		},
		t:       tl.t,
		logs:    tl.logs,
		logLock: sync.Mutex{},
		buffer:  tl.buffer,
	}
}

func (l *Logger) With(fields ...zap.Field) Loggerer {
	return &Logger{
		Logger:  l.Logger.With(fields...),
		verbose: l.verbose,
	}
}

var _ Loggerer = &TestLogger{}
var _ Loggerer = &Logger{}
