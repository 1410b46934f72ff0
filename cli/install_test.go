// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/pdmkit/env"
	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/execx/mocks"
	"github.com/stacklok/pdmkit/installer"
	"github.com/stacklok/pdmkit/pdmerr"
)

// expectInstall registers the commands of a successful installation into
// home that ends with pip installing args.
func expectInstall(runner *mocks.MockRunner, home string, args ...string) {
	venv := filepath.Join(home, "venv")
	venvPy := filepath.Join(venv, "bin", "python")
	script := filepath.Join(home, "bin", "pdm")

	runner.EXPECT().Output(gomock.Any(), "py", "-c", gomock.Any()).Return([]byte("3.12.4\n"), nil)
	runner.EXPECT().Run(gomock.Any(), "py", "-m", "venv", venv).Return(nil)
	runner.EXPECT().Run(gomock.Any(), venvPy, "-m", "ensurepip").Return(nil)
	runner.EXPECT().Run(gomock.Any(), venvPy, "-m", "pip", "install", "-IU", "pip").Return(nil)
	pip := []any{"-Im", "pip", "install"}
	for _, a := range args {
		pip = append(pip, a)
	}
	runner.EXPECT().Run(gomock.Any(), venvPy, pip...).Return(nil)
	runner.EXPECT().Output(gomock.Any(), script, "--help").Return([]byte("Usage: pdm\n"), nil)
	runner.EXPECT().Output(gomock.Any(), venvPy, "-c", gomock.Any()).Return([]byte("2.20.1\n"), nil).Times(2)
}

func TestInstallCommand(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("expects the POSIX virtual environment layout")
	}

	tests := []struct {
		name    string
		environ env.MapReader
		args    []string
		pip     []string
	}{
		{
			name:    "defaults from environment merged with flags",
			environ: env.MapReader{installer.EnvVersion: "2.20.1", installer.EnvDeps: "keyring"},
			args:    []string{"-d", "pdm-backend"},
			pip:     []string{"pdm[locked]==2.20.1", "keyring", "pdm-backend"},
		},
		{
			name:    "flags override environment",
			environ: env.MapReader{installer.EnvVersion: "2.18.0"},
			args:    []string{"-v", "2.20.1", "--no-frozen-deps", "--prerelease"},
			pip:     []string{"--pre", "pdm==2.20.1"},
		},
		{
			name:    "frozen deps disabled by environment",
			environ: env.MapReader{installer.EnvNoFrozenDeps: "1"},
			pip:     []string{"pdm"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			home := filepath.Join(t.TempDir(), "pdm")
			ctrl := gomock.NewController(t)
			runner := mocks.NewMockRunner(ctrl)
			expectInstall(runner, home, tt.pip...)

			cmd := NewInstallCommand(Deps{Env: tt.environ, Runner: runner})
			args := append([]string{"-p", home, "--python", "py", "--skip-add-to-path"}, tt.args...)
			code, stdout, stderr := run(t, cmd, args...)
			require.Equal(t, pdmerr.ExitOK, code, stderr)
			assert.Contains(t, stdout, "Successfully installed")
		})
	}
}

func TestInstallCommand_Remove(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	cmd := NewInstallCommand(Deps{Env: env.MapReader{installer.EnvRemove: "1", installer.EnvHome: home}})
	code, stdout, stderr := run(t, cmd)
	require.Equal(t, pdmerr.ExitOK, code, stderr)
	assert.Contains(t, stdout, "PDM is not currently installed.")
}

func TestInstallCommand_SubprocessExitCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().Output(gomock.Any(), "py", "-c", gomock.Any()).Return(nil, &execx.CommandError{
		Args:     []string{"py", "-c", "..."},
		Output:   "py: not found",
		ExitCode: 127,
	})

	cmd := NewInstallCommand(Deps{Env: env.MapReader{}, Runner: runner})
	code, _, stderr := run(t, cmd, "-p", t.TempDir(), "--python", "py")
	assert.Equal(t, 127, code)
	assert.Contains(t, stderr, "checking python interpreter py")
	assert.Contains(t, stderr, "py: not found")
}

func TestInstallCommand_Failure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().Output(gomock.Any(), "py", "-c", gomock.Any()).Return([]byte("3.6.15\n"), nil)

	cmd := NewInstallCommand(Deps{Env: env.MapReader{}, Runner: runner})
	code, _, stderr := run(t, cmd, "-p", t.TempDir(), "--python", "py")
	assert.Equal(t, pdmerr.ExitFailure, code)
	assert.Contains(t, stderr, "or above is required")
}
