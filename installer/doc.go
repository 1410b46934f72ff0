// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package installer installs PDM into a private virtual environment and
exposes its entry point on a bin directory.

The steps mirror what a careful user would do by hand:

 1. create <home>/venv with "python -m venv", falling back to the
    virtualenv zipapp from bootstrap.pypa.io when the venv module is
    missing;
 2. refresh pip inside the environment;
 3. install the requested PDM requirement (see [Requirement]);
 4. link <bin>/pdm to the environment's script, copying it where links
    are not permitted;
 5. run "pdm --help" as a smoke test and optionally write a JSON summary.

Every external program runs through [execx.Runner] so the sequence can be
tested without a Python interpreter.
*/
package installer
