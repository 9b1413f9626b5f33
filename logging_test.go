package particles

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerRoutesLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo("sim", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("hello %s", "world")
	l.Warnf("careful")
	l.Errorf("broken: %v", "io")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[sim] INFO: hello world")
	assert.Contains(t, errOut.String(), "[sim] WARN: careful")
	assert.Contains(t, errOut.String(), "[sim] ERROR: broken: io")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown")
	assert.Contains(t, out.String(), "DEBUG: shown")
}

func TestLoggerWithoutPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo("", true, &out, &out)
	l.Infof("plain")
	if strings.Contains(out.String(), "[") {
		t.Errorf("unexpected prefix in %q", out.String())
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewDefaultLogger("x", false)
	assert.Same(t, l, OrNop(l))

	nop := NewNopLogger()
	nop.SetDebug(true)
	assert.False(t, nop.DebugEnabled())
}
