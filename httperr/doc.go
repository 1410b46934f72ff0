// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package httperr provides error types with HTTP status codes for the index
clients in pdmkit.

The CodedError type implements the standard error interface and supports
error wrapping via errors.Is() and errors.As(), so a status code survives any
number of fmt.Errorf("...: %w") layers between the HTTP call and the CLI.

# Basic Usage

Convert a response into an error:

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := httperr.FromResponse(resp); err != nil {
		return fmt.Errorf("fetching audience: %w", err)
	}

# Extracting Status Codes

	code := httperr.Code(err)
	// Returns the code if err contains a CodedError
	// Returns 0 if no response was received
	// Returns http.StatusOK (200) if err is nil
*/
package httperr
