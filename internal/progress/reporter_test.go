package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bstardust/exif-analyzer/internal/batch"
	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/stretchr/testify/assert"
	"k8s.io/klog/v2"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Init()
	logger.SetLevel("info")
	logger.SetOutput(&buf)
	t.Cleanup(func() {
		klog.Flush()
		klog.LogToStderr(true)
	})
	return &buf
}

func TestReporter_Throttles(t *testing.T) {
	buf := captureLogs(t)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := New().WithInterval(time.Minute)
	r.now = func() time.Time { return clock }

	var _ batch.Observer = r

	for i := 1; i <= 4; i++ {
		clock = clock.Add(time.Second)
		var err error
		if i == 2 {
			err = errors.New("unreadable")
		}
		r.OnProgress(batch.Progress{Completed: i, Total: 4, Path: "f.jpg", Err: err})
	}
	r.OnFinish(batch.Summary{Records: 3, Skipped: 1, Total: 4, Duration: 4 * time.Second})
	klog.Flush()

	out := buf.String()
	assert.Contains(t, out, "Starting analysis of 4 files")
	// only the final line passes the one minute throttle
	assert.Equal(t, 1, strings.Count(out, "Progress:"))
	assert.Contains(t, out, "Progress: 100.0% (4/4, 1 skipped)")
	assert.Contains(t, out, "Analysis complete: 3/4 files processed, 1 skipped")
}

func TestReporter_EmptyAndCanceled(t *testing.T) {
	buf := captureLogs(t)

	r := New()
	r.OnProgress(batch.Progress{})
	r.OnFinish(batch.Summary{Canceled: true})
	klog.Flush()

	assert.NotContains(t, buf.String(), "Progress:")
	assert.Contains(t, buf.String(), "Analysis canceled: 0/0 files processed")
}

func TestReporter_ConsecutiveRuns(t *testing.T) {
	buf := captureLogs(t)

	r := New().WithInterval(0)
	r.OnProgress(batch.Progress{Completed: 1, Total: 2, Path: "a.jpg", Err: errors.New("gone")})
	r.OnProgress(batch.Progress{Completed: 2, Total: 2, Path: "b.jpg"})
	r.OnFinish(batch.Summary{Records: 1, Skipped: 1, Total: 2})

	r.OnProgress(batch.Progress{Completed: 1, Total: 1, Path: "a.jpg"})
	r.OnFinish(batch.Summary{Records: 1, Total: 1})
	klog.Flush()

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "Starting analysis of"))
	assert.Contains(t, out, "Starting analysis of 1 files")
	assert.Contains(t, out, "Progress: 100.0% (2/2, 1 skipped)")
	assert.Contains(t, out, "Progress: 100.0% (1/1, 0 skipped)")
}
