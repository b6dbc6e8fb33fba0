// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "errors"

var (
	// ErrSegmentOpen is returned when the initial segment file cannot
	// be opened at startup. Per §7 this is the only fatal condition in
	// the whole system — callers should abort.
	ErrSegmentOpen = errors.New("ledger: failed to open initial segment")

	// ErrEpochNotFound is returned by ReadEpoch/VerifyEpoch when the
	// requested epoch directory does not exist.
	ErrEpochNotFound = errors.New("ledger: epoch not found")

	// ErrClosed is returned by Append once the ledger has been closed.
	ErrClosed = errors.New("ledger: closed")
)
