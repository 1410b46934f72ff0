// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package httperr provides error types carrying the HTTP status code and
// response detail of a failed request to a package index.
package httperr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyDetail bounds how much of an error response body is kept.
const maxBodyDetail = 2048

// CodedError wraps an error with the HTTP status code of the response that caused it.
type CodedError struct {
	err  error
	code int
	body string
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error for errors.Is() and errors.As() compatibility.
func (e *CodedError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *CodedError) HTTPCode() int {
	return e.code
}

// Body returns the (truncated) response body, if one was captured.
func (e *CodedError) Body() string {
	return e.body
}

// WithCode wraps an error with an HTTP status code.
// If err is nil, WithCode returns nil.
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &CodedError{err: err, code: code}
}

// Code extracts the HTTP status code from an error chain.
// It returns http.StatusOK for a nil error and 0 when the chain holds no
// CodedError, i.e. no response was received at all.
func Code(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.code
	}

	return 0
}

// New creates a new error with the given message and HTTP status code.
func New(message string, code int) error {
	return &CodedError{err: errors.New(message), code: code}
}

// FromResponse returns nil for 2xx responses and a CodedError describing
// the failure otherwise. The body is read (bounded) but not closed.
func FromResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var body string
	if resp.Body != nil {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyDetail))
		body = strings.TrimSpace(string(data))
	}

	msg := fmt.Sprintf("%s %s: %s", requestMethod(resp), requestURL(resp), statusText(resp))
	return &CodedError{err: errors.New(msg), code: resp.StatusCode, body: body}
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func requestMethod(resp *http.Response) string {
	if resp.Request == nil {
		return "HTTP"
	}
	return resp.Request.Method
}

func requestURL(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return "request"
	}
	return resp.Request.URL.Redacted()
}
