package logger

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(cfg *LogConfig, w *syncBuffer) (*logrus.Logger, *AsyncHook) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetOutput(bytes.NewBuffer(nil))
	l.AddHook(NewFilterHook(cfg))
	h := NewAsyncHookWithWriters([]io.Writer{w}, 10)
	l.AddHook(h)
	return l, h
}

func TestParseFilter(t *testing.T) {
	assert.Nil(t, parseFilter(""))
	assert.Nil(t, parseFilter("*"))
	assert.Equal(t, map[string]bool{"visit": true, "job": true}, parseFilter(" Visit, job ,"))
}

func TestAsyncHook_FiltersByModule(t *testing.T) {
	out := &syncBuffer{}
	l, h := newTestLogger(&LogConfig{FilterModules: "visit"}, out)

	l.WithField("module", "visit").Info("kept")
	l.WithField("module", "quote").Info("dropped")
	l.Info("no module")
	assert.NoError(t, h.Close())

	s := out.String()
	assert.Contains(t, s, "kept")
	assert.Contains(t, s, "no module")
	assert.NotContains(t, s, "dropped")
	assert.NotContains(t, s, filteredField)
}

func TestAsyncHook_FiltersByLevel(t *testing.T) {
	out := &syncBuffer{}
	l, h := newTestLogger(&LogConfig{FilterLogTypes: "error"}, out)

	l.Info("quiet")
	l.Error("loud")
	assert.NoError(t, h.Close())

	assert.Contains(t, out.String(), "loud")
	assert.NotContains(t, out.String(), "quiet")
}
