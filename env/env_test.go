// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOSReader_Getenv(t *testing.T) {
	// Cannot run in parallel because it modifies environment variables
	testKey := "PDMKIT_TEST_ENV_VARIABLE"
	testValue := "test_value_123"
	t.Setenv(testKey, testValue)

	reader := &OSReader{}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{
			name: "existing environment variable",
			key:  testKey,
			want: testValue,
		},
		{
			name: "non-existing environment variable",
			key:  "NONEXISTENT_ENV_VAR_TESTING_12345",
			want: "",
		},
		{
			name: "empty key",
			key:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reader.Getenv(tt.key)
			if got != tt.want {
				t.Errorf("OSReader.Getenv() = %v, want %v", got, tt.want)
			}
		})
	}

	v, ok := reader.LookupEnv(testKey)
	assert.True(t, ok)
	assert.Equal(t, testValue, v)
}

func TestSnapshot(t *testing.T) {
	t.Setenv("PDMKIT_SNAPSHOT_KEY", "a=b")

	snap := Snapshot()
	assert.Equal(t, "a=b", snap.Getenv("PDMKIT_SNAPSHOT_KEY"))

	t.Setenv("PDMKIT_SNAPSHOT_KEY", "changed")
	assert.Equal(t, "a=b", snap.Getenv("PDMKIT_SNAPSHOT_KEY"), "snapshot must not follow later changes")
}

func TestMapReader(t *testing.T) {
	t.Parallel()

	r := MapReader{"SET": "value", "EMPTY": ""}

	assert.Equal(t, "value", r.Getenv("SET"))
	assert.Equal(t, "", r.Getenv("MISSING"))

	v, ok := r.LookupEnv("EMPTY")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = r.LookupEnv("MISSING")
	assert.False(t, ok)
}

func TestBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Bool(MapReader{"FLAG": tt.value}, "FLAG"))
		})
	}
}

// TestReader_InterfaceCompliance ensures the readers implement the Reader interface
func TestReader_InterfaceCompliance(t *testing.T) {
	t.Parallel()
	var _ Reader = &OSReader{}
	var _ Reader = MapReader{}
}
