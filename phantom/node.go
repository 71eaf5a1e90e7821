package phantom

// node holds the derived coloring/ordering data GreedyPHANTOM computes for a
// block exactly once, when it is added (see selfOrderIndex below for the one
// field that is permanent only because every block's diff-past is fixed at
// insertion time - see DESIGN.md).
type node struct {
	block *Block

	height uint64

	// coloringParent is the parent with the greatest blue number (ties:
	// smaller id); nil for a block with no parents.
	coloringParent *BlockID

	// blueDiffPastOrder and redDiffPastOrder map each block in this
	// node's diff-past (ancestors not already in past(coloringParent))
	// to its local index within this node's own topological view.
	blueDiffPastOrder map[BlockID]int
	redDiffPastOrder  map[BlockID]int

	// blueNumber is the total count of blue blocks in past(block); the
	// block itself is not counted, so a genesis block has 0.
	blueNumber uint64

	// selfOrderIndex is this block's position within its own topological
	// ordering: selfOrderIndex(coloringParent) + |blueDiffPastOrder| +
	// |redDiffPastOrder|. Used directly as the block's local id.
	selfOrderIndex int
}

// kChain is a contiguous prefix of a coloring chain, walked backwards from
// some tip while the cumulative number of blue diff-past blocks traversed
// does not exceed k.
type kChain struct {
	members       map[BlockID]struct{}
	minimalHeight uint64
}

func (c kChain) contains(id BlockID) bool {
	_, ok := c.members[id]
	return ok
}
