package cloud_test

import (
	"crypto/sha256"
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aryann/difflib"
	"github.com/davecgh/go-spew/spew"
	"github.com/rafaeljusto/tocloud/internal/cloud"
)

var (
	_ cloud.CloudService = (*cloud.ICloud)(nil)
	_ cloud.CloudService = (*cloud.AWS)(nil)
	_ cloud.CloudService = (*cloud.GCS)(nil)
)

// createActivityFile writes a temporary activity file that is removed when
// the test finishes.
func createActivityFile(t *testing.T, pattern, content string) string {
	f, err := ioutil.TempFile("", pattern)
	if err != nil {
		t.Fatalf("error creating file. details: %s", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("error writing file. details: %s", err)
	}

	t.Cleanup(func() {
		os.Remove(f.Name())
	})

	return f.Name()
}

func checksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

type fakeClock struct {
	mockNow func() time.Time
}

func (f fakeClock) Now() time.Time {
	return f.mockNow()
}

func fixedNow() fakeClock {
	return fakeClock{
		mockNow: func() time.Time {
			return time.Date(2018, 9, 24, 7, 30, 0, 0, time.UTC)
		},
	}
}

type mockLogger struct {
	mockDebug    func(args ...interface{})
	mockDebugf   func(format string, args ...interface{})
	mockInfo     func(args ...interface{})
	mockInfof    func(format string, args ...interface{})
	mockWarning  func(args ...interface{})
	mockWarningf func(format string, args ...interface{})
}

func (m mockLogger) Debug(args ...interface{}) {
	m.mockDebug(args...)
}

func (m mockLogger) Debugf(format string, args ...interface{}) {
	m.mockDebugf(format, args...)
}

func (m mockLogger) Info(args ...interface{}) {
	m.mockInfo(args...)
}

func (m mockLogger) Infof(format string, args ...interface{}) {
	m.mockInfof(format, args...)
}

func (m mockLogger) Warning(args ...interface{}) {
	m.mockWarning(args...)
}

func (m mockLogger) Warningf(format string, args ...interface{}) {
	m.mockWarningf(format, args...)
}

func quietLogger() mockLogger {
	return mockLogger{
		mockDebug:    func(args ...interface{}) {},
		mockDebugf:   func(format string, args ...interface{}) {},
		mockInfo:     func(args ...interface{}) {},
		mockInfof:    func(format string, args ...interface{}) {},
		mockWarning:  func(args ...interface{}) {},
		mockWarningf: func(format string, args ...interface{}) {},
	}
}

// Diff is useful to see the difference when comparing two complex types.
func Diff(a, b interface{}) []difflib.DiffRecord {
	return difflib.Diff(strings.SplitAfter(spew.Sdump(a), "\n"), strings.SplitAfter(spew.Sdump(b), "\n"))
}
