package log

import (
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

var LogLevelName = map[LogLevel]string{
	LogLevelDebug: "DEBUG",
	LogLevelInfo:  "INFO",
	LogLevelWarn:  "WARN",
	LogLevelError: "ERROR",
	LogLevelFatal: "FATAL",
}

// ParseLogLevel 配置里的日志等级, 无法识别时返回Info
func ParseLogLevel(name string) LogLevel {
	for lvl, n := range LogLevelName {
		if n == name {
			return lvl
		}
	}
	switch name {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	case "fatal":
		return LogLevelFatal
	}
	return LogLevelInfo
}

func (lvl LogLevel) zapLevel() zapcore.Level {
	switch lvl {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}

type Logger interface {
	LogDebug(depth int, fmtStr string, args ...interface{})
	LogInfo(depth int, fmtStr string, args ...interface{})
	LogWarn(depth int, fmtStr string, args ...interface{})
	LogError(depth int, fmtStr string, args ...interface{})
	LogFatal(depth int, fmtStr string, args ...interface{})
	Flush()
}

var logger Logger = newDefaultLogger()

func newDefaultLogger() Logger {
	cl := NewCommonLogger()
	cl.SetLogLevel(LogLevelInfo)
	cl.AddSink(NewStdLogSink())
	cl.Start()
	return cl
}

func SetLogger(l Logger) {
	if l == nil {
		return
	}
	logger = l
}

func GetLogger() Logger {
	return logger
}

func Debug(fmtStr string, args ...interface{}) {
	logger.LogDebug(1, fmtStr, args...)
}

func Info(fmtStr string, args ...interface{}) {
	logger.LogInfo(1, fmtStr, args...)
}

func Warn(fmtStr string, args ...interface{}) {
	logger.LogWarn(1, fmtStr, args...)
}

func Error(fmtStr string, args ...interface{}) {
	logger.LogError(1, fmtStr, args...)
}

// Fatal 输出日志后退出进程
func Fatal(fmtStr string, args ...interface{}) {
	logger.LogFatal(1, fmtStr, args...)
}

func Flush() {
	logger.Flush()
}
