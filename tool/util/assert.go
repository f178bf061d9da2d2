// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"fmt"
	"os"
	"reflect"
)

func die(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}

// Assert terminates the tool when condition does not hold. Rewriter
// invariants are enforced with assertions; there is no recovery path.
func Assert(condition bool, message string) {
	if !condition {
		die("Assertion failed: " + message)
	}
}

// AssertType asserts that value holds a T and returns it.
func AssertType[T any](value any) T {
	v, ok := value.(T)
	if !ok {
		die(fmt.Sprintf("Type assertion failed: expected %v, got %v",
			reflect.TypeFor[T](), reflect.TypeOf(value)))
	}
	return v
}

// ShouldNotReachHere marks branches the control flow must never take.
func ShouldNotReachHere() {
	die("Should not reach here")
}

// Unimplemented marks a code path that is not implemented yet.
func Unimplemented(what string) {
	die("Unimplemented: " + what)
}
