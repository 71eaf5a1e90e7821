package phantom

import (
	"github.com/pkg/errors"

	"github.com/AvivYaish/PHANTOM/dagconfig"
	"github.com/AvivYaish/PHANTOM/logger"
)

// GreedyPHANTOM is the production coloring engine: it maintains a coloring
// chain of bluest ancestors incrementally, rather than re-solving the
// k-cluster problem from scratch on every insert like BruteForcePHANTOM
// does.
//
// Unlike the teacher's VirtualBlock, GreedyPHANTOM carries no mutex: callers
// that need concurrent access must serialize it themselves, per this
// module's single-threaded design.
type GreedyPHANTOM struct {
	k uint64

	nodes  map[BlockID]*node
	leaves BlockIDSet

	// insertOrder records blocks in the order Add received them, so SetK
	// can rebuild the DAG from scratch under a new k.
	insertOrder []BlockID

	coloringTip *BlockID
	kChain      kChain
}

var _ DAG = (*GreedyPHANTOM)(nil)

// NewGreedyPHANTOM constructs an empty engine configured with params.K.
func NewGreedyPHANTOM(params dagconfig.Params) *GreedyPHANTOM {
	return &GreedyPHANTOM{
		k:      params.K,
		nodes:  make(map[BlockID]*node),
		leaves: make(BlockIDSet),
	}
}

// Contains reports whether id has been added.
func (g *GreedyPHANTOM) Contains(id BlockID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Get returns the block with the given id, if present.
func (g *GreedyPHANTOM) Get(id BlockID) (*Block, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.block, true
}

// Len returns the number of blocks added.
func (g *GreedyPHANTOM) Len() int {
	return len(g.nodes)
}

// IDs returns the ids of every added block, in no particular order.
func (g *GreedyPHANTOM) IDs() []BlockID {
	ids := make([]BlockID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// VirtualBlockParents returns the current DAG tips.
func (g *GreedyPHANTOM) VirtualBlockParents() BlockIDSet {
	out := make(BlockIDSet, len(g.leaves))
	for id := range g.leaves {
		out[id] = struct{}{}
	}
	return out
}

// Add inserts block, recomputing its coloring and ordering, and updates the
// global coloring tip if block turns out to be the bluest block known.
//
// Parents that are not yet present in the DAG are silently skipped
// wherever they're traversed below, rather than rejected: this engine
// assumes parents are present (fetching missing ancestors is a miner's
// job, not the DAG's - spec.md I1/§7) and only the blockchain variant
// legitimately rejects a block over a missing parent.
func (g *GreedyPHANTOM) Add(block *Block) error {
	if _, exists := g.nodes[block.ID]; exists {
		return errors.Wrapf(ErrDuplicateBlock, "block %d", block.ID)
	}

	n := &node{
		block:             block,
		blueDiffPastOrder: make(map[BlockID]int),
		redDiffPastOrder:  make(map[BlockID]int),
	}
	n.coloringParent = g.bluest(block.Parents)
	if n.coloringParent != nil {
		parent := g.nodes[*n.coloringParent]
		var maxHeight uint64
		for _, parentID := range block.Parents {
			if p, ok := g.nodes[parentID]; ok && p.height > maxHeight {
				maxHeight = p.height
			}
		}
		n.height = maxHeight + 1
		n.blueNumber = parent.blueNumber
	}
	g.nodes[block.ID] = n
	g.insertOrder = append(g.insertOrder, block.ID)

	g.colorDiffPast(block.ID)
	g.orderDiffPast(block.ID)

	for _, parentID := range block.Parents {
		delete(g.leaves, parentID)
	}
	g.leaves[block.ID] = struct{}{}

	if g.isMaxColoringTip(block.ID) {
		g.coloringTip = &block.ID
		g.kChain = g.kChainFor(block.ID)
		logger.Phantom().Debugf("block %d is the new coloring tip, blue number %d", block.ID, n.blueNumber)
	}

	return nil
}

// bluest returns the known parent with the greatest blue number, ties
// broken by smaller id; unknown parent ids are skipped silently. Returns
// nil if ids is empty or none of them are known.
func (g *GreedyPHANTOM) bluest(ids []BlockID) *BlockID {
	var best *BlockID
	var bestBlueNumber uint64
	for _, id := range sortedBlockIDs(ids) {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		if best == nil || n.blueNumber > bestBlueNumber {
			candidate := id
			best = &candidate
			bestBlueNumber = n.blueNumber
		}
	}
	return best
}

// isABluerThanB reports whether a has a strictly greater blue number than b,
// or an equal one with a smaller id.
func (g *GreedyPHANTOM) isABluerThanB(a, b BlockID) bool {
	aBlue, bBlue := g.nodes[a].blueNumber, g.nodes[b].blueNumber
	return aBlue > bBlue || (aBlue == bBlue && a < b)
}

func (g *GreedyPHANTOM) isMaxColoringTip(id BlockID) bool {
	if g.coloringTip == nil {
		return true
	}
	return g.isABluerThanB(id, *g.coloringTip)
}

// coloringChain yields id, coloringParent(id), coloringParent(coloringParent(id)), ...
func (g *GreedyPHANTOM) coloringChain(id BlockID) func(yield func(BlockID) bool) {
	return func(yield func(BlockID) bool) {
		cur := &id
		for cur != nil {
			if !yield(*cur) {
				return
			}
			cur = g.nodes[*cur].coloringParent
		}
	}
}

// kChainFor returns the k-chain whose tip is the given block.
func (g *GreedyPHANTOM) kChainFor(tip BlockID) kChain {
	members := make(map[BlockID]struct{})
	var minimalHeight uint64
	var blueCount uint64
	for id := range g.coloringChain(tip) {
		if blueCount > g.k {
			break
		}
		members[id] = struct{}{}
		n := g.nodes[id]
		minimalHeight = n.height
		blueCount += uint64(len(n.blueDiffPastOrder))
	}
	return kChain{members: members, minimalHeight: minimalHeight}
}

// coloringRule2 reports whether a is blue relative to the given k-chain: its
// own coloring chain must intersect the k-chain before dropping below the
// k-chain's minimal height. This is the height-only rule the spec calls
// "rule 2"; the depth-bounded "rule 3" variant exists in the original
// implementation but is never selected there, so it is not reproduced here.
func (g *GreedyPHANTOM) coloringRule2(kc kChain, a BlockID) bool {
	for id := range g.coloringChain(a) {
		if g.nodes[id].height < kc.minimalHeight {
			return false
		}
		if kc.contains(id) {
			return true
		}
	}
	return false
}

// ancestorInPast reports whether y lies in past(x): in x's own diff-past,
// or equal to/in the diff-past of one of x's coloring-chain ancestors.
func (g *GreedyPHANTOM) ancestorInPast(x, y BlockID) bool {
	cur := &x
	for cur != nil {
		n := g.nodes[*cur]
		if _, ok := n.blueDiffPastOrder[y]; ok {
			return true
		}
		if _, ok := n.redDiffPastOrder[y]; ok {
			return true
		}
		cur = n.coloringParent
		if cur != nil && *cur == y {
			return true
		}
	}
	return false
}

// colorDiffPast computes blueDiffPastOrder/redDiffPastOrder for the given,
// already-registered block: every ancestor that isn't already accounted for
// by the block's coloring parent is colored blue or red according to the
// block's own k-chain, and folded into its blue number.
func (g *GreedyPHANTOM) colorDiffPast(id BlockID) {
	n := g.nodes[id]
	kc := g.kChainFor(id)

	queue := append([]BlockID(nil), n.block.Parents...)
	for len(queue) > 0 {
		candidate := queue[0]
		queue = queue[1:]

		candidateNode, known := g.nodes[candidate]
		if !known {
			continue
		}
		if _, ok := n.blueDiffPastOrder[candidate]; ok {
			continue
		}
		if _, ok := n.redDiffPastOrder[candidate]; ok {
			continue
		}
		if n.coloringParent != nil && g.ancestorInPast(*n.coloringParent, candidate) {
			continue
		}

		queue = append(queue, candidateNode.block.Parents...)
		if g.coloringRule2(kc, candidate) {
			n.blueDiffPastOrder[candidate] = -1
		} else {
			n.redDiffPastOrder[candidate] = -1
		}
	}

	n.blueNumber += uint64(len(n.blueDiffPastOrder))
}

// orderDiffPast assigns local indices (step 4): a reverse-post-order walk
// starting from the block's parents, visiting the coloring parent first
// among siblings and then blue before red (both sorted by id), restricted
// to the block's own diff-past. Indices start at the coloring parent's
// selfOrderIndex (0 if there is none).
func (g *GreedyPHANTOM) orderDiffPast(id BlockID) {
	n := g.nodes[id]

	inDiffPast := func(candidate BlockID) bool {
		if _, ok := n.blueDiffPastOrder[candidate]; ok {
			return true
		}
		_, ok := n.redDiffPastOrder[candidate]
		return ok
	}
	isBlueMember := func(candidate BlockID) bool {
		_, ok := n.blueDiffPastOrder[candidate]
		return ok
	}

	var order []BlockID
	visited := make(map[BlockID]bool)
	var visit func(cur BlockID)
	visit = func(cur BlockID) {
		if visited[cur] {
			return
		}
		visited[cur] = true

		curNode := g.nodes[cur]
		var coloringParentSibling *BlockID
		var blueSiblings, redSiblings []BlockID
		for _, parentID := range curNode.block.Parents {
			if !inDiffPast(parentID) {
				continue
			}
			if curNode.coloringParent != nil && parentID == *curNode.coloringParent {
				p := parentID
				coloringParentSibling = &p
				continue
			}
			if isBlueMember(parentID) {
				blueSiblings = append(blueSiblings, parentID)
			} else {
				redSiblings = append(redSiblings, parentID)
			}
		}

		if coloringParentSibling != nil {
			visit(*coloringParentSibling)
		}
		for _, sibling := range sortedBlockIDs(blueSiblings) {
			visit(sibling)
		}
		for _, sibling := range sortedBlockIDs(redSiblings) {
			visit(sibling)
		}

		order = append(order, cur)
	}

	var topLevel []BlockID
	for _, parentID := range n.block.Parents {
		if inDiffPast(parentID) {
			topLevel = append(topLevel, parentID)
		}
	}
	var topColoringParent *BlockID
	var topBlue, topRed []BlockID
	for _, parentID := range topLevel {
		if n.coloringParent != nil && parentID == *n.coloringParent {
			p := parentID
			topColoringParent = &p
			continue
		}
		if isBlueMember(parentID) {
			topBlue = append(topBlue, parentID)
		} else {
			topRed = append(topRed, parentID)
		}
	}
	if topColoringParent != nil {
		visit(*topColoringParent)
	}
	for _, sibling := range sortedBlockIDs(topBlue) {
		visit(sibling)
	}
	for _, sibling := range sortedBlockIDs(topRed) {
		visit(sibling)
	}

	startingIndex := 0
	if n.coloringParent != nil {
		startingIndex = g.nodes[*n.coloringParent].selfOrderIndex
	}
	for i, ancestorID := range order {
		localIndex := startingIndex + i
		if isBlueMember(ancestorID) {
			n.blueDiffPastOrder[ancestorID] = localIndex
		} else {
			n.redDiffPastOrder[ancestorID] = localIndex
		}
	}
	n.selfOrderIndex = startingIndex + len(order)
}

// pastColor reports the color of y as seen from tip's coloring chain: chain
// blocks are blue by definition, and otherwise y's color is whatever the
// chain block that absorbed it into its diff-past recorded. found is false
// if y is not reachable on tip's chain at all (y is still in tip's
// antipast).
func (g *GreedyPHANTOM) pastColor(tip BlockID, y BlockID) (isBlue bool, found bool) {
	for id := range g.coloringChain(tip) {
		if id == y {
			return true, true
		}
		n := g.nodes[id]
		if _, ok := n.blueDiffPastOrder[y]; ok {
			return true, true
		}
		if _, ok := n.redDiffPastOrder[y]; ok {
			return false, true
		}
	}
	return false, false
}

// IsBlue reports whether id is part of the current global blue coloring.
// Blocks not yet absorbed into the coloring tip's past are colored lazily
// against the current main k-chain, matching the spec's deferred-antipast
// coloring rule.
func (g *GreedyPHANTOM) IsBlue(id BlockID) bool {
	if g.coloringTip == nil {
		return false
	}
	if isBlue, found := g.pastColor(*g.coloringTip, id); found {
		return isBlue
	}
	return g.coloringRule2(g.kChain, id)
}

// IsABeforeB compares two blocks' local ids. Local id here is each block's
// permanent selfOrderIndex: see DESIGN.md for why this is equivalent to,
// but simpler than, the reference implementation's lazily-recomputed
// antipast ordering.
func (g *GreedyPHANTOM) IsABeforeB(a, b BlockID) (bool, bool) {
	nodeA, hasA := g.nodes[a]
	nodeB, hasB := g.nodes[b]
	switch {
	case !hasA && !hasB:
		return false, false
	case hasA && !hasB:
		return true, true
	case !hasA && hasB:
		return false, true
	default:
		return nodeA.selfOrderIndex <= nodeB.selfOrderIndex, true
	}
}

// GetDepth finds the coloring-chain block c whose blue diff-past holds id and
// returns 1 plus the sizes of the blue diff-pasts of every chain block above
// c: c itself and the blue blocks absorbed after it, with the 1 counting the
// coloring tip. Red blocks, blocks still in the antipast, and the coloring
// tip itself have depth 0.
func (g *GreedyPHANTOM) GetDepth(id BlockID) int64 {
	if _, ok := g.nodes[id]; !ok {
		return DepthUnknown
	}
	if g.coloringTip == nil {
		return 0
	}
	if _, found := g.pastColor(*g.coloringTip, id); !found {
		return 0
	}

	depth := int64(1)
	for chainID := range g.coloringChain(*g.coloringTip) {
		n := g.nodes[chainID]
		if _, ok := n.redDiffPastOrder[id]; ok {
			return 0
		}
		if _, ok := n.blueDiffPastOrder[id]; ok {
			return depth
		}
		depth += int64(len(n.blueDiffPastOrder))
	}
	return 0
}

// SetK reconfigures k and rebuilds the coloring and ordering of every
// previously added block from scratch, in original insertion order.
func (g *GreedyPHANTOM) SetK(k uint64) {
	blocks := make([]*Block, len(g.insertOrder))
	for i, id := range g.insertOrder {
		blocks[i] = g.nodes[id].block
	}

	g.k = k
	g.nodes = make(map[BlockID]*node)
	g.leaves = make(BlockIDSet)
	g.insertOrder = nil
	g.coloringTip = nil
	g.kChain = kChain{}

	for _, block := range blocks {
		// Blocks were already validated on their first insertion; a
		// failure here would indicate a corrupted internal state.
		if err := g.Add(block); err != nil {
			logger.Phantom().Errorf("rebuilding under k=%d: %s", k, err)
		}
	}
}
