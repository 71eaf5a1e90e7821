// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dagconfig holds the tunable parameters of the consensus engine:
// the anticone-size bound k, and the two thresholds the competing-chain
// attack extension uses to decide when an attack is viable and when it has
// succeeded.
package dagconfig

// Params bundles the parameters a DAG instance is configured with.
type Params struct {
	// Name is a human-readable identifier for this parameter set.
	Name string

	// K is the maximal anticone size allowed for a blue block.
	K uint64

	// ConfirmationDepth is the minimum blue-future depth, under the main
	// chain, a block must reach before it is considered irreversible.
	// Only consulted by the competing-chain extension.
	ConfirmationDepth uint64

	// MaximalDepthDifference is the competing-chain attacker's abandon
	// threshold: the gap, in blue_number, between the honest tip and the
	// attacker's tip beyond which continuing the attack is no longer
	// viable. Only consulted by the competing-chain extension.
	MaximalDepthDifference uint64
}

// MainnetParams are the parameters recommended for a production deployment:
// k is picked to keep the expected anticone size of an honest block under
// the protocol's security bound at realistic propagation delays.
var MainnetParams = Params{
	Name:                   "mainnet",
	K:                      10,
	ConfirmationDepth:      5,
	MaximalDepthDifference: 5,
}

// SimnetParams loosen k for small, fast-running simulations and tests, where
// exercising larger anticones under a tiny k is more useful than realism.
var SimnetParams = Params{
	Name:                   "simnet",
	K:                      3,
	ConfirmationDepth:      2,
	MaximalDepthDifference: 2,
}
