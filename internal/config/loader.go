/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/gcfg.v1"
)

const (
	kb = 1024
	mb = 1024 * kb

	// maxConfigSize is a sanity check against a runaway or corrupt config
	// file: read it whole, but refuse to if it's absurdly large.
	maxConfigSize int64 = 4 * mb
)

var (
	ErrConfigFileTooLarge = errors.New("config file is too large")
	ErrFailedFileRead = errors.New("failed to read entire config file")
)

// loadConfigFile opens path, sanity-checks its size, and parses it into v
// using the gcfg (INI-like) dialect.
func loadConfigFile(v interface{}, path string) error {
	fin, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fin.Close()

	fi, err := fin.Stat()
	if err != nil {
		return err
	}
	if fi.Size() > maxConfigSize {
		return ErrConfigFileTooLarge
	}

	bb := bytes.NewBuffer(nil)
	n, err := io.Copy(bb, fin)
	if err != nil {
		return err
	}
	if n != fi.Size() {
		return ErrFailedFileRead
	}
	return loadConfigBytes(v, bb.Bytes())
}

func loadConfigBytes(v interface{}, b []byte) error {
	if int64(len(b)) > maxConfigSize {
		return ErrConfigFileTooLarge
	}
	return gcfg.ReadStringInto(v, string(b))
}
