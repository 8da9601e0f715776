package log

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap/zapcore"
)

type RotateType int

const (
	RotateByDay RotateType = iota
	RotateByHour
)

const (
	defaultMaxSizeMB  = 512
	defaultMaxBackups = 72
	defaultMaxAgeDays = 7
)

// FileLogSink 按天/小时切分文件, 单文件超过大小也会切分
type FileLogSink struct {
	rotateType RotateType
	writer     *lumberjack.Logger

	lock      sync.Mutex
	curPeriod string
}

func NewFileLogSink(prefixFilename string, logDir string, rotateType RotateType) *FileLogSink {
	if logDir == "" {
		logDir = "./log/"
	}
	_, err := os.Stat(logDir)
	if os.IsNotExist(err) {
		os.MkdirAll(logDir, os.FileMode(0770))
	}

	sink := &FileLogSink{
		rotateType: rotateType,
		writer: &lumberjack.Logger{
			Filename:   filepath.Join(logDir, prefixFilename+".log"),
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAgeDays,
			LocalTime:  true,
		},
	}
	sink.curPeriod = sink.period(time.Now())
	return sink
}

func (sink *FileLogSink) period(t time.Time) string {
	switch sink.rotateType {
	case RotateByHour:
		return t.Format("2006_01_02_15")
	default:
		return t.Format("2006_01_02")
	}
}

func (sink *FileLogSink) Write(p []byte) (int, error) {
	sink.lock.Lock()
	defer sink.lock.Unlock()

	if period := sink.period(time.Now()); period != sink.curPeriod {
		sink.curPeriod = period
		_ = sink.writer.Rotate()
	}
	return sink.writer.Write(p)
}

func (sink *FileLogSink) Sync() error {
	return nil
}

func (sink *FileLogSink) Close() error {
	return sink.writer.Close()
}

func (sink *FileLogSink) Encoder() zapcore.Encoder {
	return newTextEncoder()
}

func (sink *FileLogSink) WriteSyncer() zapcore.WriteSyncer {
	return sink
}
