// Package phantom implements the PHANTOM block-DAG consensus protocol and
// its GreedyPHANTOM and CompetingChainGreedyPHANTOM variants: an incremental
// blue/red coloring of a DAG of blocks under a k-bounded anticone, together
// with a total ordering consistent with that coloring.
package phantom

import (
	"sort"

	"github.com/pkg/errors"
)

// BlockID is the opaque identifier of a block. Unlike the teacher's 32-byte
// daghash.Hash, blocks here are identified by a plain 64-bit integer; callers
// are responsible for picking ids that make parenthood well defined (e.g. a
// counter, or a real hash truncated to 64 bits).
type BlockID uint64

// Block is a single node to be inserted into a DAG. Parents must name blocks
// already present in the DAG (or be empty, for a genesis block). Size and
// Data play no role in coloring or ordering; they ride along so a caller
// embedding this engine in a simulation has somewhere to put a block's
// payload without a second side table keyed by BlockID.
type Block struct {
	ID      BlockID
	Parents []BlockID
	Size    uint64
	Data    any
}

// ErrUnknownParent is returned by blockchain.Blockchain's Add when a block
// names a parent that has not been added to the chain yet. The PHANTOM
// family (BruteForcePHANTOM, GreedyPHANTOM, CompetingChainGreedyPHANTOM)
// never returns it: they assume parents are present and silently skip
// unknown parent ids wherever they traverse them, per spec.md I1/§7.
var ErrUnknownParent = errors.New("phantom: block names a parent that is not in the dag")

// ErrDuplicateBlock is returned by Add when a block with the same id has
// already been added.
var ErrDuplicateBlock = errors.New("phantom: block already present in the dag")

// sortedBlockIDs returns ids sorted ascending. Every tie-break in this
// package is "smaller id wins", so call sites normalize with this helper
// before picking extremes out of a set.
func sortedBlockIDs(ids []BlockID) []BlockID {
	out := make([]BlockID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
