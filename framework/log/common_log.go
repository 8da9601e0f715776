package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxCallerDepth = 4

type CommonLogger struct {
	logLvl zap.AtomicLevel
	sinks  []LogSink

	// 按调用深度缓存, 避免每次打印都clone logger
	loggers [maxCallerDepth]*zap.Logger
}

func NewCommonLogger() *CommonLogger {
	cl := &CommonLogger{
		logLvl: zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}
	return cl
}

func (cl *CommonLogger) SetLogLevel(logLvl LogLevel) {
	cl.logLvl.SetLevel(logLvl.zapLevel())
}

func (cl *CommonLogger) AddSink(sink LogSink) {
	cl.sinks = append(cl.sinks, sink)
}

// Start 在AddSink之后调用
func (cl *CommonLogger) Start() {
	cores := make([]zapcore.Core, 0, len(cl.sinks))
	for _, sink := range cl.sinks {
		cores = append(cores, zapcore.NewCore(sink.Encoder(), sink.WriteSyncer(), cl.logLvl))
	}
	base := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	for depth := 0; depth < maxCallerDepth; depth++ {
		// levelLog + LogXxx
		cl.loggers[depth] = base.WithOptions(zap.AddCallerSkip(depth + 2))
	}
}

func (cl *CommonLogger) levelLog(depth int, lvl LogLevel, fmtStr string, args ...interface{}) {
	if depth >= maxCallerDepth {
		depth = maxCallerDepth - 1
	}
	zl := cl.loggers[depth]
	if zl == nil {
		return
	}

	msg := fmtStr
	if len(args) > 0 {
		msg = fmt.Sprintf(fmtStr, args...)
	}
	if ce := zl.Check(lvl.zapLevel(), msg); ce != nil {
		ce.Write()
	}
}

func (cl *CommonLogger) LogDebug(depth int, fmtStr string, args ...interface{}) {
	cl.levelLog(depth, LogLevelDebug, fmtStr, args...)
}

func (cl *CommonLogger) LogInfo(depth int, fmtStr string, args ...interface{}) {
	cl.levelLog(depth, LogLevelInfo, fmtStr, args...)
}

func (cl *CommonLogger) LogWarn(depth int, fmtStr string, args ...interface{}) {
	cl.levelLog(depth, LogLevelWarn, fmtStr, args...)
}

func (cl *CommonLogger) LogError(depth int, fmtStr string, args ...interface{}) {
	cl.levelLog(depth, LogLevelError, fmtStr, args...)
}

func (cl *CommonLogger) LogFatal(depth int, fmtStr string, args ...interface{}) {
	cl.Flush()
	cl.levelLog(depth, LogLevelFatal, fmtStr, args...)
}

func (cl *CommonLogger) Flush() {
	for _, zl := range cl.loggers {
		if zl != nil {
			_ = zl.Sync()
			return
		}
	}
}
