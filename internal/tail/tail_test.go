package tail

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravwell/logstat/internal/record"
)

type recordingParser struct {
	lines []string
}

func (p *recordingParser) Parse(line string) (*record.Entry, error) {
	if line == "#skip\n" {
		return nil, ErrSkipLine
	}
	if line == "bad\n" {
		return nil, errors.New("boom")
	}
	p.lines = append(p.lines, line)
	return &record.Entry{RequestPath: line}, nil
}

type countingIngester struct {
	entries []*record.Entry
}

func (c *countingIngester) Ingest(e *record.Entry) {
	c.entries = append(c.entries, e)
}

type fakeWaker struct {
	woken int
}

func (w *fakeWaker) Wake() { w.woken++ }

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "tail-*.log")
	require.NoError(t, err)
	_, err = f.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestTickNoOpWhenSizeUnchanged(t *testing.T) {
	path := writeTempFile(t, "line one\n")
	parser := &recordingParser{}
	ing := &countingIngester{}

	f, err := New(path, parser, ing)
	require.NoError(t, err)

	require.NoError(t, f.Tick())
	assert.Empty(t, ing.entries)
	assert.False(t, f.TookInvalidated())
}

func TestTickIngestsAppendedLines(t *testing.T) {
	path := writeTempFile(t, "line one\n")
	parser := &recordingParser{}
	ing := &countingIngester{}

	f, err := New(path, parser, ing)
	require.NoError(t, err)

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = fh.WriteString("line two\nline three\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	require.NoError(t, f.Tick())
	require.Len(t, ing.entries, 2)
	assert.Equal(t, "line two\n", ing.entries[0].RequestPath)
	assert.Equal(t, "line three\n", ing.entries[1].RequestPath)
	assert.True(t, f.TookInvalidated())
	// TookInvalidated clears the flag
	assert.False(t, f.TookInvalidated())
}

func TestTickSkipsSentinelLinesWithoutCountingInvalid(t *testing.T) {
	path := writeTempFile(t, "")
	parser := &recordingParser{}
	ing := &countingIngester{}

	f, err := New(path, parser, ing)
	require.NoError(t, err)

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = fh.WriteString("#skip\nreal line\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	require.NoError(t, f.Tick())
	require.Len(t, ing.entries, 1)
	assert.Equal(t, uint64(0), f.InvalidCount())
}

func TestTickCountsInvalidLines(t *testing.T) {
	path := writeTempFile(t, "")
	parser := &recordingParser{}
	ing := &countingIngester{}

	var gotLine string
	var gotErr error
	f, err := New(path, parser, ing, WithInvalidHandler(func(line string, err error) {
				gotLine, gotErr = line, err
			}))
	require.NoError(t, err)

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = fh.WriteString("bad\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	require.NoError(t, f.Tick())
	assert.Equal(t, uint64(1), f.InvalidCount())
	assert.Equal(t, "bad\n", gotLine)
	assert.EqualError(t, gotErr, "boom")
}

func TestTickWakesDNSResolverOnlyWhenLinesIngested(t *testing.T) {
	path := writeTempFile(t, "")
	parser := &recordingParser{}
	ing := &countingIngester{}
	waker := &fakeWaker{}

	f, err := New(path, parser, ing, WithDNSWaker(waker))
	require.NoError(t, err)

	require.NoError(t, f.Tick())
	assert.Equal(t, 0, waker.woken)

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = fh.WriteString("a line\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	require.NoError(t, f.Tick())
	assert.Equal(t, 1, waker.woken)
}

func TestNewDisablesTailingForNonRegularFile(t *testing.T) {
	// a directory is the simplest portable stand-in for "not a regular
	// file": piped input disables tail-follow entirely.
	dir := t.TempDir()

	parser := &recordingParser{}
	ing := &countingIngester{}

	f, err := New(dir, parser, ing)
	require.NoError(t, err)
	assert.True(t, f.Piped())
	assert.NoError(t, f.Tick())
	assert.Empty(t, ing.entries)
}

func TestRunStopsPromptly(t *testing.T) {
	path := writeTempFile(t, "line one\n")
	parser := &recordingParser{}
	ing := &countingIngester{}

	f, err := New(path, parser, ing)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		f.Run(nil)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	f.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
