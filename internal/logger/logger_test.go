package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/klog/v2"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		klog.LogToStderr(true)
		SetLevel("info")
	}()

	SetLevel("warn")
	Info("hidden %d", 1)
	Debug("hidden %d", 2)
	Warn("shown %s", "warning")
	Error("shown %s", "error")
	Flush()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warning")
	assert.Contains(t, out, "shown error")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("shown error")))
}
