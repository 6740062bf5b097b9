package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	// 控制台日志
	err := InitLogger(LogLevelNormal, "")
	assert.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())

	// 文件日志，目录不存在时自动创建
	tempLogFile := filepath.Join(t.TempDir(), "logs", "test.log")
	err = InitLogger(LogLevelVerbose, tempLogFile)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Info("写入文件")
	_, err = os.Stat(tempLogFile)
	assert.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("VERBOSE"))
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("info"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("未知级别"))
}

func TestLogLevelsFiltering(t *testing.T) {
	require.NoError(t, InitLogger(LogLevelQuiet, ""))

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("debug message")
	Info("info message")
	Warn("warn message %d", 1)
	Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message 1")
	assert.Contains(t, out, "error message")
}

func TestWithFieldLogging(t *testing.T) {
	require.NoError(t, InitLogger(LogLevelNormal, ""))

	var buf bytes.Buffer
	SetOutput(&buf)

	WithField("slide", 3).Info("with field")
	WithFields(logrus.Fields{
		"task":  "abc",
		"bytes": 42,
	}).Info("with fields")

	out := buf.String()
	assert.Contains(t, out, "slide=3")
	assert.Contains(t, out, "task=abc")
	assert.Contains(t, out, "bytes=42")
}
