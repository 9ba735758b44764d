/*************************************************************************
 * Copyright 2026 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buf struct {
	bytes.Buffer
}

func (b *buf) Close() error { return nil }

func TestLevelFromString(t *testing.T) {
	cases := []struct {
		in  string
		lvl Level
	}{
		{"off", OFF},
		{"DEBUG", DEBUG},
		{"Info", INFO},
		{"warn", WARN},
		{"ERROR", ERROR},
		{"critical", CRITICAL},
		{"FATAL", FATAL},
	}
	for _, c := range cases {
		lvl, err := LevelFromString(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.lvl, lvl)
	}

	_, err := LevelFromString("bogus")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestLoggerDropsBelowLevel(t *testing.T) {
	var b buf
	l := New(&b)
	require.NoError(t, l.SetLevel(WARN))

	require.NoError(t, l.Info("should not appear"))
	assert.Empty(t, b.String())

	require.NoError(t, l.Warn("should appear"))
	assert.Contains(t, b.String(), "should appear")
}

func TestLoggerOffDisablesAll(t *testing.T) {
	var b buf
	l := New(&b)
	require.NoError(t, l.SetLevel(OFF))
	require.NoError(t, l.Critical("nothing"))
	assert.Empty(t, b.String())
}

func TestAddWriterFansOut(t *testing.T) {
	var b1, b2 buf
	l := New(&b1)
	require.NoError(t, l.AddWriter(&b2))

	require.NoError(t, l.Info("hello"))
	assert.Contains(t, b1.String(), "hello")
	assert.Contains(t, b2.String(), "hello")
}

func TestDeleteWriterStopsFanOut(t *testing.T) {
	var b1, b2 buf
	l := New(&b1)
	require.NoError(t, l.AddWriter(&b2))
	require.NoError(t, l.DeleteWriter(&b2))

	require.NoError(t, l.Info("hello"))
	assert.Contains(t, b1.String(), "hello")
	assert.Empty(t, b2.String())
}

func TestStructuredLoggingIncludesKV(t *testing.T) {
	var b buf
	l := New(&b)
	require.NoError(t, l.Error("line invalid", KV("reason", "bad method"), KV("lineno", 12)))
	out := b.String()
	assert.Contains(t, out, "line invalid")
	assert.Contains(t, out, "reason=")
	assert.Contains(t, out, "bad method")
}

func TestKVLoggerPinsContext(t *testing.T) {
	var b buf
	l := New(&b)
	kvl := NewLoggerWithKV(l, KV("run_id", "abc-123"))

	require.NoError(t, kvl.Info("started"))
	assert.Contains(t, b.String(), "run_id=")
	assert.Contains(t, b.String(), "abc-123")
}

func TestClosedLoggerRejectsWrites(t *testing.T) {
	var b buf
	l := New(&b)
	require.NoError(t, l.Close())
	err := l.Info("too late")
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestSetLevelRejectsInvalid(t *testing.T) {
	var b buf
	l := New(&b)
	err := l.SetLevel(Level(99))
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestRawModeOmitsStructuredFraming(t *testing.T) {
	var b buf
	l := New(&b)
	l.EnableRawMode()
	require.NoError(t, l.Infof("plain %s", "message"))
	assert.True(t, strings.Contains(b.String(), "plain message"))
	assert.False(t, strings.Contains(b.String(), "["+DefaultID+""))
}

func TestNewDiscardLoggerSwallowsOutput(t *testing.T) {
	l := NewDiscardLogger()
	require.NoError(t, l.Info("anything"))
}
