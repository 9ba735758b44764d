/*************************************************************************
 * Copyright 2026 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package logsrc

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestOpenPlainFileIsTailable(t *testing.T) {
	path := writeFile(t, "access.log", "line one\nline two\n")
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.True(t, src.Tailable)

	l1, err := src.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "line one", l1)

	l2, err := src.ReadLine()
	assert.Equal(t, "line two", l2)
	assert.True(t, err == nil || err == io.EOF)
}

func TestOpenGzipFileDecompressesAndIsNotTailable(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("compressed line one\ncompressed line two\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	path := filepath.Join(t.TempDir(), "access.log.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.False(t, src.Tailable)

	l1, err := src.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "compressed line one", l1)
}

func TestOpenEmptyPathUsesStdin(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	origStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = origStdin }()

	go func() {
		w.Write([]byte("piped line\n"))
		w.Close()
	}()

	src, err := Open("")
	require.NoError(t, err)
	defer src.Close()

	assert.False(t, src.Tailable)
	line, err := src.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "piped line", line)
}

func TestReadLineStripsCRLF(t *testing.T) {
	path := writeFile(t, "crlf.log", "line one\r\nline two\r\n")
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	l1, err := src.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "line one", l1)
}
