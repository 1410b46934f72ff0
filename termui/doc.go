// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package termui holds the small amount of terminal interaction the
// commands need: colored status lines, result tables and credential
// prompts. Colors are only emitted when the output is a terminal and
// NO_COLOR is unset.
package termui
