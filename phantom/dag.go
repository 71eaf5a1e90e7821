package phantom

import "github.com/AvivYaish/PHANTOM/lazyset"

// BlockIDSet is a plain, already-materialized set of block ids.
type BlockIDSet = lazyset.Set[BlockID]

// DepthUnknown is returned by GetDepth for an id that is not in the DAG,
// standing in for the "-infinity" sentinel: no finite depth is comparable to
// it, and it sorts below every real depth.
const DepthUnknown int64 = -1 << 62

// DAG is the contract satisfied by every coloring/ordering engine in this
// module: BruteForcePHANTOM, GreedyPHANTOM, and blockchain.Blockchain.
//
// Virtual block parents are the tips an honest miner should build its next
// block on top of. Local id is the position of a block in the DAG's
// topological order, used to answer "did a come before b".
type DAG interface {
	// Contains reports whether id has been added to the DAG.
	Contains(id BlockID) bool

	// Get returns the block with the given id, if present.
	Get(id BlockID) (*Block, bool)

	// Len returns the number of blocks added to the DAG.
	Len() int

	// IDs returns the ids of every block added to the DAG. Order is
	// unspecified.
	IDs() []BlockID

	// VirtualBlockParents returns the ids that an honest block mined on
	// top of the current DAG should name as its parents.
	VirtualBlockParents() BlockIDSet

	// Add inserts block into the DAG, updating its coloring and ordering.
	Add(block *Block) error

	// IsABeforeB reports whether a precedes b in the DAG's topological
	// order. The second return value is false iff neither id is present
	// (for blockchain.Blockchain: iff neither id is on its longest chain),
	// in which case the ordering is undefined.
	IsABeforeB(a, b BlockID) (before bool, ok bool)

	// GetDepth returns the confirmation depth of id in the DAG's main
	// sub-DAG, or DepthUnknown if id is not present.
	GetDepth(id BlockID) int64

	// SetK reconfigures the maximal blue anticone size, rebuilding the
	// DAG's coloring and ordering from scratch.
	SetK(k uint64)
}

// MaliciousDAG is the contract satisfied by CompetingChainGreedyPHANTOM. It
// does not embed DAG: AddBlock and VirtualBlockParents take an extra
// is-this-for-the-attacker parameter that a plain DAG implementer's methods
// don't carry, so the method sets are kept separate rather than forcing a
// shared signature onto both.
type MaliciousDAG interface {
	Contains(id BlockID) bool
	Get(id BlockID) (*Block, bool)
	Len() int
	IDs() []BlockID

	// AddBlock inserts block into the combined DAG, and, depending on
	// isMalicious, either into the honest sub-DAG or the attacker's
	// pending queue.
	AddBlock(block *Block, isMalicious bool) error

	// VirtualBlockParents returns the parents the next honest or
	// malicious block should name, depending on isMalicious.
	VirtualBlockParents(isMalicious bool) BlockIDSet

	IsABeforeB(a, b BlockID) (before bool, ok bool)
	GetDepth(id BlockID) int64
	SetK(k uint64)

	// DidAttackSucceed reports whether the attacker has managed to
	// reorder a block of its own ahead of the block it targeted.
	DidAttackSucceed() bool

	// DidAttackFail reports whether there is currently no attack in
	// progress (either none was ever started, or the last one ended).
	DidAttackFail() bool
}
