/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package logsrc opens the initial log input stream: either stdin (pipe
// mode, no tail) or a regular file, optionally gzip-compressed, detected
// by the two leading magic bytes `1F 8B` and decompressed with
// klauspost/compress/gzip rather than the standard library's
// implementation.
package logsrc

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

const gzipMagic uint16 = 0x8B1F

// StdinPath is the sentinel path value meaning "read from stdin".
const StdinPath = "-"

// Source is one opened input stream: a line reader plus whether the
// underlying file can be tailed for incremental growth.
type Source struct {
	rc io.ReadCloser
	r *bufio.Reader
	Path string
	Tailable bool
}

// Open opens path (or stdin, if path is StdinPath or empty) and sniffs for
// a gzip header. A gzip-compressed input is never tailable: its on-disk
// byte offsets do not correspond to decompressed line boundaries, so
// incremental tail-follow is meaningless on it.
func Open(path string) (*Source, error) {
	if path == "" || path == StdinPath {
		return &Source{rc: io.NopCloser(os.Stdin), r: bufio.NewReader(os.Stdin), Path: StdinPath}, nil
	}

	fin, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := fin.Stat()
	if err != nil {
		fin.Close()
		return nil, err
	}
	tailable := fi.Mode().IsRegular()

	br := bufio.NewReader(fin)
	gzipped, err := sniffGzip(br)
	if err != nil {
		fin.Close()
		return nil, err
	}

	if !gzipped {
		return &Source{rc: fin, r: br, Path: path, Tailable: tailable}, nil
	}

	gzr, err := gzip.NewReader(br)
	if err != nil {
		fin.Close()
		return nil, err
	}
	return &Source{
		rc: readCloserFunc{Reader: gzr, closer: func() error { gzr.Close(); return fin.Close() }},
		r: bufio.NewReader(gzr),
		Path: path,
		Tailable: false,
	}, nil
}

// sniffGzip peeks the leading two bytes without consuming them from r.
func sniffGzip(r *bufio.Reader) (bool, error) {
	head, err := r.Peek(2)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return binary.LittleEndian.Uint16(head) == gzipMagic, nil
}

type readCloserFunc struct {
	io.Reader
	closer func () error
}

func (r readCloserFunc) Close() error { return r.closer() }

// ReadLine returns the next newline-delimited line (embedded newlines
// inside fields are the parser's concern, not this package's). The
// trailing '\n' is stripped. io.EOF is returned once the stream is
// exhausted, possibly together with a final partial line.
func (s *Source) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
	}
	return line, err
}

// Close releases the underlying file or gzip reader. Stdin is never closed.
func (s *Source) Close() error {
	if s.rc == nil {
		return nil
	}
	return s.rc.Close()
}
