// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the typed failures reported by the setup pipeline.
// Every stage returns an *Error so the CLI can tell a declined prompt from a
// missing installation or a config file it could not write.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	// KindInvalidArgument marks settings that cannot be used.
	KindInvalidArgument Kind = "invalid_argument"
	// KindDiscovery marks a host config, package or runtime that was not found.
	KindDiscovery       Kind = "discovery"
	// KindCredentials marks an unreadable or malformed credentials file.
	KindCredentials     Kind = "credentials"
	// KindPersistence marks a host config that could not be read or written.
	KindPersistence     Kind = "persistence"
	// KindAborted marks a run stopped by the operator, by prompt or signal.
	KindAborted         Kind = "aborted"
	// KindInternal marks a failure inside the tool itself, such as a recovered panic.
	KindInternal        Kind = "internal"
)

// Error is a classified failure with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, and false when
// there is none.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err's chain holds an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// NewInvalidArgumentError returns a KindInvalidArgument error.
func NewInvalidArgumentError(message string, cause error) *Error {
	return New(KindInvalidArgument, message, cause)
}

// NewDiscoveryError returns a KindDiscovery error.
func NewDiscoveryError(message string, cause error) *Error {
	return New(KindDiscovery, message, cause)
}

// NewCredentialsError returns a KindCredentials error.
func NewCredentialsError(message string, cause error) *Error {
	return New(KindCredentials, message, cause)
}

// NewPersistenceError returns a KindPersistence error.
func NewPersistenceError(message string, cause error) *Error {
	return New(KindPersistence, message, cause)
}

// NewAbortedError returns a KindAborted error.
func NewAbortedError(message string, cause error) *Error {
	return New(KindAborted, message, cause)
}

// NewInternalError returns a KindInternal error.
func NewInternalError(message string, cause error) *Error {
	return New(KindInternal, message, cause)
}

// IsInvalidArgument reports whether err is a KindInvalidArgument error.
func IsInvalidArgument(err error) bool { return Is(err, KindInvalidArgument) }

// IsDiscovery reports whether err is a KindDiscovery error.
func IsDiscovery(err error) bool { return Is(err, KindDiscovery) }

// IsCredentials reports whether err is a KindCredentials error.
func IsCredentials(err error) bool { return Is(err, KindCredentials) }

// IsPersistence reports whether err is a KindPersistence error.
func IsPersistence(err error) bool { return Is(err, KindPersistence) }

// IsAborted reports whether err is a KindAborted error.
func IsAborted(err error) bool { return Is(err, KindAborted) }

// IsInternal reports whether err is a KindInternal error.
func IsInternal(err error) bool { return Is(err, KindInternal) }
