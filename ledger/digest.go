// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// genesisHash is the literal predecessor hash of the first envelope in
// an epoch, per §3.
const genesisHash = "0"

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// chainHash computes hash_chain[i] = H(prevHash ‖ body).
func chainHash(prevHash string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
