package log

import (
	"io"
	"os"

	"go.uber.org/zap/zapcore"
)

type LogSink interface {
	Encoder() zapcore.Encoder
	WriteSyncer() zapcore.WriteSyncer
}

// [2006-01-02 15:04:05.000][INFO][file.go:12]content
func newTextEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		CallerKey:        "C",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05.000]"),
		EncodeLevel:      bracketLevelEncoder,
		EncodeCaller:     bracketCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: "",
	})
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func bracketCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + caller.TrimmedPath() + "]")
}

// std out log sink
type StdoutLogSink struct {
}

func NewStdLogSink() *StdoutLogSink {
	return &StdoutLogSink{}
}

func (sink *StdoutLogSink) Encoder() zapcore.Encoder {
	return newTextEncoder()
}

func (sink *StdoutLogSink) WriteSyncer() zapcore.WriteSyncer {
	return zapcore.Lock(os.Stdout)
}

// WriterLogSink 输出到任意io.Writer, 测试用
type WriterLogSink struct {
	w io.Writer
}

func NewWriterLogSink(w io.Writer) *WriterLogSink {
	return &WriterLogSink{w: w}
}

func (sink *WriterLogSink) Encoder() zapcore.Encoder {
	return newTextEncoder()
}

func (sink *WriterLogSink) WriteSyncer() zapcore.WriteSyncer {
	return zapcore.Lock(zapcore.AddSync(sink.w))
}
