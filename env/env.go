// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package env

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=env.go -destination=mocks/mock_reader.go -package=mocks Reader

import (
	"os"
	"strconv"
	"strings"
)

// Reader defines an interface for environment variable access
type Reader interface {
	Getenv(key string) string
	LookupEnv(key string) (string, bool)
}

// OSReader implements Reader using the standard os package
type OSReader struct{}

// Getenv returns the value of the environment variable named by the key
func (*OSReader) Getenv(key string) string {
	return os.Getenv(key)
}

// LookupEnv returns the value of the environment variable and whether it is set
func (*OSReader) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapReader implements Reader over a fixed snapshot of variables.
type MapReader map[string]string

// Getenv returns the value stored for key, or "" when absent.
func (m MapReader) Getenv(key string) string {
	return m[key]
}

// LookupEnv returns the value stored for key and whether it is present.
func (m MapReader) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Snapshot copies the current process environment into a MapReader.
func Snapshot() MapReader {
	m := MapReader{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

// Bool interprets the variable named by key as a boolean flag.
// Unset or empty variables are false; values strconv.ParseBool rejects
// are treated as true, matching shell conventions like PDM_REMOVE=yes.
func Bool(r Reader, key string) bool {
	v := r.Getenv(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}
