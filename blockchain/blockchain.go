// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain provides the degenerate single-parent longest-chain
// baseline: a DAG implementer that only ever tracks one chain of blocks, used
// to compare the PHANTOM protocol's confirmation times and ordering against
// classic Nakamoto consensus.
package blockchain

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/AvivYaish/PHANTOM/phantom"
)

func sortIDs(ids []phantom.BlockID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

type chainNode struct {
	block       *phantom.Block
	parent      *phantom.BlockID
	chainLength uint64
}

// Blockchain tracks the longest chain among the blocks it has been given. A
// block naming more than one parent is still accepted, but only its bluest
// (here: longest-chain) named parent is ever linked to - the rest are
// ignored, mirroring how a real longest-chain client would simply pick the
// tip it is building on.
type Blockchain struct {
	nodes  map[phantom.BlockID]*chainNode
	leaves phantom.BlockIDSet

	longestChainTipID *phantom.BlockID
	longestChain      phantom.BlockIDSet
}

var _ phantom.DAG = (*Blockchain)(nil)

// New constructs an empty chain.
func New() *Blockchain {
	return &Blockchain{
		nodes:        make(map[phantom.BlockID]*chainNode),
		leaves:       make(phantom.BlockIDSet),
		longestChain: make(phantom.BlockIDSet),
	}
}

func (b *Blockchain) Contains(id phantom.BlockID) bool {
	_, ok := b.nodes[id]
	return ok
}

func (b *Blockchain) Get(id phantom.BlockID) (*phantom.Block, bool) {
	n, ok := b.nodes[id]
	if !ok {
		return nil, false
	}
	return n.block, true
}

func (b *Blockchain) Len() int {
	return len(b.nodes)
}

func (b *Blockchain) IDs() []phantom.BlockID {
	ids := make([]phantom.BlockID, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	return ids
}

// VirtualBlockParents returns the current chain tip, or an empty set if no
// block has been added yet.
func (b *Blockchain) VirtualBlockParents() phantom.BlockIDSet {
	if b.longestChainTipID == nil {
		return make(phantom.BlockIDSet)
	}
	return phantom.BlockIDSet{*b.longestChainTipID: struct{}{}}
}

// longestChainTipAmong returns whichever of ids has the greatest chain
// length, ties broken by smaller id, or nil if ids is empty.
func (b *Blockchain) longestChainTipAmong(ids []phantom.BlockID) *phantom.BlockID {
	if len(ids) == 0 {
		return nil
	}
	sorted := append([]phantom.BlockID(nil), ids...)
	sortIDs(sorted)

	best := sorted[0]
	bestLength := b.nodes[best].chainLength
	for _, id := range sorted[1:] {
		if l := b.nodes[id].chainLength; l > bestLength {
			best, bestLength = id, l
		}
	}
	return &best
}

// Add inserts block, extending the chain of whichever of its named parents
// has the greatest chain length (ties: smaller id).
func (b *Blockchain) Add(block *phantom.Block) error {
	if _, exists := b.nodes[block.ID]; exists {
		return errors.Wrapf(phantom.ErrDuplicateBlock, "block %d", block.ID)
	}
	for _, parentID := range block.Parents {
		if _, ok := b.nodes[parentID]; !ok {
			return errors.Wrapf(phantom.ErrUnknownParent, "block %d references parent %d", block.ID, parentID)
		}
	}

	parent := b.longestChainTipAmong(block.Parents)
	var chainLength uint64 = 1
	if parent != nil {
		chainLength += b.nodes[*parent].chainLength
	}

	b.nodes[block.ID] = &chainNode{block: block, parent: parent, chainLength: chainLength}

	for _, parentID := range block.Parents {
		delete(b.leaves, parentID)
	}
	b.leaves[block.ID] = struct{}{}

	b.updateLongestChain(block.ID, parent)
	return nil
}

// chain walks backwards from tip along recorded parent links, yielding each
// id once.
func (b *Blockchain) chain(tip *phantom.BlockID) []phantom.BlockID {
	if tip == nil {
		return nil
	}
	var ids []phantom.BlockID
	cur := tip
	for cur != nil {
		ids = append(ids, *cur)
		cur = b.nodes[*cur].parent
	}
	return ids
}

// updateLongestChain replaces the tracked longest chain with the one ending
// at id, if id's chain is now the longest (ties: smaller id).
func (b *Blockchain) updateLongestChain(id phantom.BlockID, parent *phantom.BlockID) {
	chainLength := b.nodes[id].chainLength

	isNewLongest := b.longestChainTipID == nil
	if !isNewLongest {
		prevLength := b.nodes[*b.longestChainTipID].chainLength
		isNewLongest = chainLength > prevLength || (chainLength == prevLength && id < *b.longestChainTipID)
	}
	if !isNewLongest {
		return
	}

	previousTipID := b.longestChainTipID
	b.longestChainTipID = &id

	if parent != nil && previousTipID != nil && *parent == *previousTipID {
		b.longestChain[id] = struct{}{}
		return
	}

	var intersection *phantom.BlockID
	var toAdd []phantom.BlockID
	for _, ancestorID := range b.chain(&id) {
		if _, ok := b.longestChain[ancestorID]; ok {
			a := ancestorID
			intersection = &a
			break
		}
		toAdd = append(toAdd, ancestorID)
	}
	for _, ancestorID := range b.chain(previousTipID) {
		if intersection != nil && ancestorID == *intersection {
			break
		}
		delete(b.longestChain, ancestorID)
	}
	for _, ancestorID := range toAdd {
		b.longestChain[ancestorID] = struct{}{}
	}
}

// IsABeforeB compares chain lengths among blocks on the currently tracked
// longest chain. A block on the longest chain is ordered before one that is
// not; if neither is on it, ok is false.
func (b *Blockchain) IsABeforeB(a, b2 phantom.BlockID) (bool, bool) {
	_, aIn := b.longestChain[a]
	_, bIn := b.longestChain[b2]
	switch {
	case !aIn && !bIn:
		return false, false
	case aIn && !bIn:
		return true, true
	case !aIn && bIn:
		return false, true
	default:
		return b.nodes[a].chainLength <= b.nodes[b2].chainLength, true
	}
}

// GetDepth returns how many blocks on the longest chain were mined after id.
// Blocks that fell off the longest chain have depth 0.
func (b *Blockchain) GetDepth(id phantom.BlockID) int64 {
	if _, ok := b.nodes[id]; !ok {
		return phantom.DepthUnknown
	}
	if _, ok := b.longestChain[id]; !ok {
		return 0
	}
	tipLength := b.nodes[*b.longestChainTipID].chainLength
	return int64(tipLength - b.nodes[id].chainLength)
}

// SetK is a no-op: chain length has no anticone bound to reconfigure.
func (b *Blockchain) SetK(uint64) {}
