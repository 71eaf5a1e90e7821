package phantom

import (
	"github.com/pkg/errors"

	"github.com/AvivYaish/PHANTOM/dagconfig"
	"github.com/AvivYaish/PHANTOM/lazyset"
)

// BruteForcePHANTOM is the reference coloring engine: on every insert it
// recomputes the coloring from scratch by enumerating every subset of known
// blocks and keeping the largest one whose members each have a blue anticone
// no larger than k. It exists to validate GreedyPHANTOM against small DAGs;
// its running time is exponential in the number of blocks, so it is not
// meant for anything but tests and small simulations.
type BruteForcePHANTOM struct {
	k uint64

	blocks   map[BlockID]*Block
	parents  map[BlockID][]BlockID
	children map[BlockID][]BlockID
	leaves   BlockIDSet

	coloring  BlockIDSet
	localID   map[BlockID]int
	genesisID *BlockID

	// pastCache memoizes past(id): since the DAG is append-only, a block's
	// ancestry never changes once its parents are fixed.
	pastCache map[BlockID]BlockIDSet
}

var _ DAG = (*BruteForcePHANTOM)(nil)

// NewBruteForcePHANTOM constructs an empty engine configured with params.K.
func NewBruteForcePHANTOM(params dagconfig.Params) *BruteForcePHANTOM {
	return &BruteForcePHANTOM{
		k:        params.K,
		blocks:   make(map[BlockID]*Block),
		parents:  make(map[BlockID][]BlockID),
		children: make(map[BlockID][]BlockID),
		leaves:   make(BlockIDSet),
		coloring:  make(BlockIDSet),
		localID:   make(map[BlockID]int),
		pastCache: make(map[BlockID]BlockIDSet),
	}
}

func (d *BruteForcePHANTOM) Contains(id BlockID) bool {
	_, ok := d.blocks[id]
	return ok
}

func (d *BruteForcePHANTOM) Get(id BlockID) (*Block, bool) {
	b, ok := d.blocks[id]
	return b, ok
}

func (d *BruteForcePHANTOM) Len() int {
	return len(d.blocks)
}

func (d *BruteForcePHANTOM) IDs() []BlockID {
	ids := make([]BlockID, 0, len(d.blocks))
	for id := range d.blocks {
		ids = append(ids, id)
	}
	return ids
}

func (d *BruteForcePHANTOM) VirtualBlockParents() BlockIDSet {
	out := make(BlockIDSet, len(d.leaves))
	for id := range d.leaves {
		out[id] = struct{}{}
	}
	return out
}

// Add inserts block and recolors/reorders the entire DAG. A parent id not
// yet present in the DAG is silently skipped wherever it's traversed
// below rather than rejected: this engine assumes parents are present
// (spec.md I1/§7) and only the blockchain variant legitimately rejects a
// block over a missing parent.
func (d *BruteForcePHANTOM) Add(block *Block) error {
	if _, exists := d.blocks[block.ID]; exists {
		return errors.Wrapf(ErrDuplicateBlock, "block %d", block.ID)
	}

	d.blocks[block.ID] = block
	d.parents[block.ID] = append([]BlockID(nil), block.Parents...)
	for _, parentID := range block.Parents {
		if _, ok := d.blocks[parentID]; !ok {
			continue
		}
		d.children[parentID] = append(d.children[parentID], block.ID)
		delete(d.leaves, parentID)
	}
	d.leaves[block.ID] = struct{}{}

	d.recolor()
	d.reorder()
	return nil
}

// past returns every ancestor of id, excluding id itself. Results are
// memoized: each parent's already-flattened past is reused as a shared,
// uncopied layer when composing id's own past, and only flattened once
// itself, the first time it's asked for.
func (d *BruteForcePHANTOM) past(id BlockID) BlockIDSet {
	if cached, ok := d.pastCache[id]; ok {
		return cached
	}

	ls := &lazyset.LazySet[BlockID]{}
	for _, parentID := range d.parents[id] {
		if _, ok := d.blocks[parentID]; !ok {
			continue
		}
		ls.LazyUpdate(lazyset.Set[BlockID]{parentID: {}})
		ls.LazyUpdate(d.past(parentID))
	}

	flat := ls.ToSet()
	d.pastCache[id] = flat
	return flat
}

// future returns every descendant of id, excluding id itself.
func (d *BruteForcePHANTOM) future(id BlockID) BlockIDSet {
	visited := make(BlockIDSet)
	queue := append([]BlockID(nil), d.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		queue = append(queue, d.children[cur]...)
	}
	return visited
}

// anticone returns every block neither in the past nor the future of id.
func (d *BruteForcePHANTOM) anticone(id BlockID) BlockIDSet {
	// past(id) is shared, cached state: copy it before folding in the
	// future and id itself, rather than mutating the cache in place.
	cone := make(BlockIDSet, len(d.past(id)))
	for ancestor := range d.past(id) {
		cone[ancestor] = struct{}{}
	}
	for descendant := range d.future(id) {
		cone[descendant] = struct{}{}
	}
	cone[id] = struct{}{}

	out := make(BlockIDSet)
	for other := range d.blocks {
		if _, ok := cone[other]; !ok {
			out[other] = struct{}{}
		}
	}
	return out
}

// recolor enumerates the power set of all known block ids and keeps the
// largest subset whose members each have a blue anticone of size <= k.
// Subsets that include a smaller id are tried first, so among equally large
// colorings the one favouring smaller ids wins.
func (d *BruteForcePHANTOM) recolor() {
	ids := sortedBlockIDs(d.IDs())
	anticones := make(map[BlockID]BlockIDSet, len(ids))
	for _, id := range ids {
		anticones[id] = d.anticone(id)
	}

	var best BlockIDSet
	var current BlockIDSet
	var chooseFrom func(i int)
	chooseFrom = func(i int) {
		if i == len(ids) {
			if valid(current, anticones, d.k) && len(current) > len(best) {
				best = copyBlockIDSet(current)
			}
			return
		}
		current[ids[i]] = struct{}{}
		chooseFrom(i + 1)
		delete(current, ids[i])

		chooseFrom(i + 1)
	}
	current = make(BlockIDSet)
	chooseFrom(0)
	if best == nil {
		best = make(BlockIDSet)
	}
	d.coloring = best
}

func valid(coloring BlockIDSet, anticones map[BlockID]BlockIDSet, k uint64) bool {
	for id := range coloring {
		var blueAnticoneSize uint64
		for other := range anticones[id] {
			if _, ok := coloring[other]; ok {
				blueAnticoneSize++
			}
		}
		if blueAnticoneSize > k {
			return false
		}
	}
	return true
}

func copyBlockIDSet(s BlockIDSet) BlockIDSet {
	out := make(BlockIDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// reorder performs a depth-first post-order traversal from the leaves,
// visiting blue ancestors (in id order) before red ones, assigning local
// ids starting at 0 at the genesis.
func (d *BruteForcePHANTOM) reorder() {
	visited := make(map[BlockID]bool)
	var order []BlockID

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true

		var blue, red []BlockID
		for _, parentID := range d.parents[id] {
			if _, ok := d.blocks[parentID]; !ok {
				continue
			}
			if _, ok := d.coloring[parentID]; ok {
				blue = append(blue, parentID)
			} else {
				red = append(red, parentID)
			}
		}
		for _, parentID := range sortedBlockIDs(blue) {
			visit(parentID)
		}
		for _, parentID := range sortedBlockIDs(red) {
			visit(parentID)
		}
		order = append(order, id)
	}

	var blueLeaves, redLeaves []BlockID
	for leafID := range d.leaves {
		if _, ok := d.coloring[leafID]; ok {
			blueLeaves = append(blueLeaves, leafID)
		} else {
			redLeaves = append(redLeaves, leafID)
		}
	}
	for _, id := range sortedBlockIDs(blueLeaves) {
		visit(id)
	}
	for _, id := range sortedBlockIDs(redLeaves) {
		visit(id)
	}

	d.localID = make(map[BlockID]int, len(order))
	for localID, id := range order {
		d.localID[id] = localID
	}
	if len(order) > 0 {
		genesis := order[0]
		d.genesisID = &genesis
	}
}

func (d *BruteForcePHANTOM) IsABeforeB(a, b BlockID) (bool, bool) {
	_, hasA := d.blocks[a]
	_, hasB := d.blocks[b]
	switch {
	case !hasA && !hasB:
		return false, false
	case hasA && !hasB:
		return true, true
	case !hasA && hasB:
		return false, true
	default:
		return d.localID[a] <= d.localID[b], true
	}
}

// GetDepth always returns DepthUnknown: brute-force coloring is exponential,
// so by the time a DAG is complex enough to make depth meaningful, recoloring
// it on every query is impractical. Matches the reference implementation.
func (d *BruteForcePHANTOM) GetDepth(id BlockID) int64 {
	if _, ok := d.blocks[id]; !ok {
		return DepthUnknown
	}
	return DepthUnknown
}

// SetK reconfigures k and recolors/reorders the whole DAG.
func (d *BruteForcePHANTOM) SetK(k uint64) {
	d.k = k
	d.recolor()
	d.reorder()
}
