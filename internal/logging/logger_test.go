package logging

import (
	"bytes"
	"log"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestDebugGate(t *testing.T) {
	buf := captureLog(t)
	prev := DebugEnabled()
	t.Cleanup(func() { SetDebug(prev) })

	SetDebug(false)
	Debug("census", "hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debug("census", "shown %d", 2)
	assert.Equal(t, "[census] shown 2\n", buf.String())
}

func TestInfoAndWarn(t *testing.T) {
	buf := captureLog(t)

	Info("merge", "%d clusters", 3)
	Warn("parse", "sidecar down")
	assert.Equal(t, "[merge] 3 clusters\n[parse] warning: sidecar down\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("  short\n", 10))
	assert.Equal(t, "Harry went...", Truncate("Harry went\nto Hogwarts", 10))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; a cut at byte 3 would split the second one.
	got := Truncate("ééé", 3)
	assert.Equal(t, "é...", got)
	assert.True(t, utf8.ValidString(got))
}
