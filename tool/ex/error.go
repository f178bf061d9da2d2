// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

// Package ex provides stackful errors for the instrumentation tool. Every
// wrap site records its frame, so a failure deep in the rewriter surfaces
// with the full path that led there. Fatal errors print to stderr with the
// [augmentum] prefix and terminate the process.
package ex

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

const maxFrames = 32

type stackfulError struct {
	message string
	wrapped error
	frame   []string
}

func (e *stackfulError) Error() string {
	switch {
	case e.message == "" && e.wrapped == nil:
		return "unknown error"
	case e.message == "":
		return e.wrapped.Error()
	case e.wrapped == nil:
		return e.message
	default:
		return e.message + ": " + e.wrapped.Error()
	}
}

func (e *stackfulError) Unwrap() error { return e.wrapped }

func currentFrames() []string {
	pcs := make([]uintptr, maxFrames)
	// Skip runtime.Callers, currentFrames and the ex entry point.
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	formatted := make([]string, 0, n)
	for i := 0; ; i++ {
		frame, more := frames.Next()
		formatted = append(formatted,
			fmt.Sprintf("[%d]%s:%d %s", i, frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return formatted
}

func newError(wrapped error, message string) error {
	return &stackfulError{
		message: message,
		wrapped: wrapped,
		frame:   currentFrames(),
	}
}

// New returns a stackful error with the given message.
func New(message string) error { return newError(nil, message) }

// Newf returns a stackful error with a formatted message.
func Newf(format string, args ...any) error {
	return newError(nil, fmt.Sprintf(format, args...))
}

// Wrap annotates err with the current stack.
func Wrap(err error) error { return newError(err, "") }

// Wrapf annotates err with the current stack and a formatted message.
func Wrapf(err error, format string, args ...any) error {
	return newError(err, fmt.Sprintf(format, args...))
}

// Error is Wrap under the name the tool's call sites historically use.
func Error(err error) error { return newError(err, "") }

// Errorf wraps err with a formatted message; err may be nil.
func Errorf(err error, format string, args ...any) error {
	return newError(err, fmt.Sprintf(format, args...))
}

func printStackful(e *stackfulError) {
	var sb strings.Builder
	sb.WriteString("[augmentum] ")
	sb.WriteString(e.Error())
	sb.WriteString("\nStack:\n")
	for _, fr := range e.frame {
		sb.WriteString("\t")
		sb.WriteString(fr)
		sb.WriteString("\n")
	}
	fmt.Fprint(os.Stderr, sb.String())
}

// Fatal prints a stackful error and exits. A non-stackful or nil error is a
// misuse of the API and panics instead.
func Fatal(err error) {
	var se *stackfulError
	if err != nil && errors.As(err, &se) {
		printStackful(se)
		os.Exit(1)
	}
	panic(fmt.Sprintf("[augmentum] Fatal called with non-stackful error: %v", err))
}

// Fatalf prints a formatted fatal error with the current stack and exits.
func Fatalf(format string, args ...any) {
	e := &stackfulError{
		message: fmt.Sprintf(format, args...),
		frame:   currentFrames(),
	}
	printStackful(e)
	os.Exit(1)
}
