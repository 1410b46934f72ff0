// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package config resolves the repository an invocation publishes to.

Configuration is layered. From lowest to highest precedence:

  - built-in defaults ([Defaults]: pypi and testpypi)
  - the stored YAML file ([Load], default location [DefaultPath])
  - environment variables (PDM_PUBLISH_REPO, PDM_PUBLISH_USERNAME,
    PDM_PUBLISH_PASSWORD, PDM_PUBLISH_CA_CERTS)
  - command line flags

[Merge] is a pure function over those four inputs; the environment is passed
as an [env.Reader] so tests never touch the process environment.

# File Format

	repository:
	  pypi:
	    username: __token__
	    password: pypi-AgEI...
	  private:
	    url: https://pypi.example.com/legacy/
	    ca_certs: /etc/ssl/private-ca.pem
	    verify_ssl: true
	    trusted_publishing: false

The file is validated against an embedded JSON schema before decoding, so
misspelled keys are reported instead of silently ignored.
*/
package config
