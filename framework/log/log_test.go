package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	cl := NewCommonLogger()
	cl.SetLogLevel(LogLevelInfo)
	cl.AddSink(NewWriterLogSink(buf))
	cl.Start()

	old := GetLogger()
	SetLogger(cl)
	defer SetLogger(old)

	Debug("hidden %d", 1)
	Info("hello %s", "world")
	Warn("plain")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "[WARN]")
	// 调用位置是本文件而不是log包装
	assert.Contains(t, out, "log_test.go:")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestFileLogSink(t *testing.T) {
	dir := t.TempDir()
	cl := NewCommonLogger()
	sink := NewFileLogSink("node", dir, RotateByDay)
	cl.AddSink(sink)
	cl.Start()

	cl.LogError(0, "disk %s", "full")
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(filepath.Join(dir, "node.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[ERROR]")
	assert.Contains(t, string(data), "disk full")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("unknown"))
}
