// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import "errors"

// ErrShuttingDown is returned by Enqueue once shutdown has begun. It is
// the only failure Enqueue ever surfaces, per §4.1/§7.
var ErrShuttingDown = errors.New("router: shutting down")
