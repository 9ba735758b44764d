/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
)

var (
	errNoEnvArg = errors.New("no env arg")
	ErrInvalidArg = errors.New("invalid arguments")
	ErrEmptyEnvFile = errors.New("environment value file is empty")
)

// ParseBool accepts a loose vocabulary: true/t/yes/y/1 and
// false/f/no/n/0, case-insensitively.
func ParseBool(v string) (r bool, err error) {
	switch strings.ToLower(v) {
	case `true`, `t`, `yes`, `y`, `1`:
		r = true
	case `false`, `f`, `no`, `n`, `0`:
	default:
		err = fmt.Errorf("unknown boolean value %q", v)
	}
	return
}

func loadEnvFile(nm string) (r string, err error) {
	fin, err := os.Open(nm)
	if err != nil {
		return
	}
	defer fin.Close()
	s := bufio.NewScanner(fin)
	s.Scan()
	if err = s.Err(); err != nil {
		return
	}
	r = s.Text()
	if r == `` {
		err = ErrEmptyEnvFile
	}
	return
}

// loadEnv looks up nm directly, falling back to nm+"_FILE" naming the path
// to a file whose first line holds the value (used for secrets that
// shouldn't be passed as plaintext env vars).
func loadEnv(nm string) (s string, err error) {
	var ok bool
	if s, ok = os.LookupEnv(nm); ok {
		return
	}
	if fp, ok := os.LookupEnv(nm + `_FILE`); ok {
		s, err = loadEnvFile(fp)
	} else {
		err = errNoEnvArg
	}
	return
}

// LoadEnvVar overrides cnd from the environment variable envName if the
// field is still at its zero value, falling back to defVal when the
// variable is unset (env var overrides, e.g. LOGSTAT_LOG_LEVEL).
func LoadEnvVar(cnd interface{}, envName string, defVal interface{}) error {
	if cnd == nil || reflect.ValueOf(cnd).Kind() != reflect.Ptr {
		return ErrInvalidArg
	}
	switch v := cnd.(type) {
	case *string:
		var def string
		if defVal != nil {
			var ok bool
			if def, ok = defVal.(string); !ok {
				return ErrInvalidArg
			}
		}
		return loadEnvVarString(v, envName, def)
	case *bool:
		var def bool
		if defVal != nil {
			var ok bool
			if def, ok = defVal.(bool); !ok {
				return ErrInvalidArg
			}
		}
		return loadEnvVarBool(v, envName, def)
	case *[]string:
		return loadEnvVarList(v, envName)
	}
	return ErrInvalidArg
}

func loadEnvVarBool(cnd *bool, envName string, defVal bool) (err error) {
	if cnd == nil {
		return ErrInvalidArg
	} else if *cnd || len(envName) == 0 {
		return nil
	}
	argstr, err := loadEnv(envName)
	if err == errNoEnvArg {
		*cnd = defVal
		return nil
	} else if err != nil {
		return err
	}
	*cnd, err = ParseBool(argstr)
	return err
}

func loadEnvVarString(cnd *string, envName, defVal string) (err error) {
	if cnd == nil {
		return ErrInvalidArg
	} else if len(*cnd) > 0 || len(envName) == 0 {
		return nil
	}
	if *cnd, err = loadEnv(envName); err != nil {
		if err == errNoEnvArg {
			err = nil
			*cnd = defVal
		}
	}
	return err
}

func loadEnvVarList(lst *[]string, envName string) error {
	if lst == nil {
		return ErrInvalidArg
	} else if len(*lst) > 0 || len(envName) == 0 {
		return nil
	}
	arg, err := loadEnv(envName)
	if err == errNoEnvArg {
		arg = ``
	} else if err != nil {
		return err
	}
	if len(arg) == 0 {
		return nil
	}
	for _, b := range strings.Split(arg, ",") {
		if b = strings.TrimSpace(b); len(b) > 0 {
			*lst = append(*lst, b)
		}
	}
	return nil
}
