package model

import "errors"

var (
	// ErrNotFound is returned when a collaborator has no record for an address.
	ErrNotFound = errors.New("not found")

	// ErrNetworkFailure wraps failed or timed out collaborator calls.
	ErrNetworkFailure = errors.New("network failure")

	// ErrDecodeMismatch is returned when a log does not fit the supplied ABI.
	ErrDecodeMismatch = errors.New("decode mismatch")

	// ErrCompile is returned when source recompilation reports an error.
	ErrCompile = errors.New("compile error")
)
