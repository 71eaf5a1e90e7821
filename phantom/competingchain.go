package phantom

import (
	"github.com/AvivYaish/PHANTOM/dagconfig"
	"github.com/AvivYaish/PHANTOM/logger"
)

// CompetingChainGreedyPHANTOM augments GreedyPHANTOM with a malicious miner
// that mines a private competing coloring chain, trying to get one of its
// own blocks ordered ahead of a targeted honest block. It is used to
// evaluate the protocol's security, not to run an actual attack against
// anything.
type CompetingChainGreedyPHANTOM struct {
	GreedyPHANTOM

	// honestDAG is the view an honest node would have: every block added
	// with isMalicious=false, in the order it was published, plus each
	// malicious block once it is released from pendingMalicious.
	honestDAG *GreedyPHANTOM

	confirmationDepth      uint64
	maximalDepthDifference uint64

	competingChainTipID    *BlockID
	currentlyAttackedBlock *BlockID
	firstParallelBlock     *BlockID

	// competingChainTipAntipast tracks the ids not yet absorbed into the
	// competing chain tip's past, mirroring the honest DAG's antipast
	// bookkeeping but scoped to the attacker's private chain.
	competingChainTipAntipast BlockIDSet

	virtualCompetingChainBlockParents BlockIDSet

	// pendingMalicious holds malicious blocks not yet merged into the
	// honest sub-DAG, released once the current attack stops or succeeds.
	pendingMalicious []BlockID
}

var _ MaliciousDAG = (*CompetingChainGreedyPHANTOM)(nil)

// NewCompetingChainGreedyPHANTOM constructs an empty engine. The
// confirmationDepth and maximalDepthDifference fields come from
// params.ConfirmationDepth and params.MaximalDepthDifference.
func NewCompetingChainGreedyPHANTOM(params dagconfig.Params) *CompetingChainGreedyPHANTOM {
	return &CompetingChainGreedyPHANTOM{
		GreedyPHANTOM:                      *NewGreedyPHANTOM(params),
		honestDAG:                          NewGreedyPHANTOM(params),
		confirmationDepth:                  params.ConfirmationDepth,
		maximalDepthDifference:              params.MaximalDepthDifference,
		competingChainTipAntipast:           make(BlockIDSet),
		virtualCompetingChainBlockParents:   make(BlockIDSet),
	}
}

// DidAttackFail reports whether there is no attack currently in progress.
func (c *CompetingChainGreedyPHANTOM) DidAttackFail() bool {
	return c.firstParallelBlock == nil || c.currentlyAttackedBlock == nil
}

func (c *CompetingChainGreedyPHANTOM) drainPendingMaliciousIntoHonestDAG() {
	for len(c.pendingMalicious) > 0 {
		id := c.pendingMalicious[0]
		c.pendingMalicious = c.pendingMalicious[1:]
		block, _ := c.Get(id)
		if err := c.honestDAG.Add(block); err != nil {
			logger.Attack().Errorf("draining malicious block %d into honest dag: %s", id, err)
		}
	}
}

// AddBlock inserts block into the combined DAG, and routes it into the
// honest sub-DAG or the attacker's pending queue depending on isMalicious.
func (c *CompetingChainGreedyPHANTOM) AddBlock(block *Block, isMalicious bool) error {
	if err := c.GreedyPHANTOM.Add(block); err != nil {
		return err
	}
	id := block.ID

	if isMalicious {
		c.pendingMalicious = append(c.pendingMalicious, id)
		if c.DidAttackFail() {
			c.firstParallelBlock = &id
		}

		c.competingChainTipID = &id
		n := c.nodes[id]
		for blueID := range n.blueDiffPastOrder {
			delete(c.competingChainTipAntipast, blueID)
		}
		for redID := range n.redDiffPastOrder {
			delete(c.competingChainTipAntipast, redID)
		}

		c.virtualCompetingChainBlockParents = c.competingChainTipParents(id, c.competingChainTipAntipast, block.Parents)
	} else {
		if c.DidAttackFail() {
			c.drainPendingMaliciousIntoHonestDAG()
		}
		if err := c.honestDAG.Add(block); err != nil {
			return err
		}
	}

	if c.DidAttackSucceed() {
		c.drainPendingMaliciousIntoHonestDAG()
	}

	if !c.DidAttackFail() {
		c.competingChainTipAntipast[id] = struct{}{}
		if id == *c.competingChainTipID || c.isABluerThanB(*c.competingChainTipID, id) {
			for _, parentID := range block.Parents {
				delete(c.virtualCompetingChainBlockParents, parentID)
			}
			c.virtualCompetingChainBlockParents[id] = struct{}{}
		} else if !c.isAttackViable() {
			c.stopAttack()
		}
	}

	return nil
}

func (c *CompetingChainGreedyPHANTOM) stopAttack() {
	c.drainPendingMaliciousIntoHonestDAG()
	c.competingChainTipID = nil
	c.firstParallelBlock = nil
}

func (c *CompetingChainGreedyPHANTOM) restartAttack() {
	c.stopAttack()

	c.competingChainTipAntipast = make(BlockIDSet)
	honestTip := c.honestDAG.coloringTip
	c.currentlyAttackedBlock = honestTip
	if honestTip == nil {
		c.virtualCompetingChainBlockParents = make(BlockIDSet)
		return
	}

	for id := range c.honestDAG.nodes {
		if _, blue := c.honestDAG.pastColor(*honestTip, id); !blue {
			c.competingChainTipAntipast[id] = struct{}{}
		}
	}
	c.competingChainTipAntipast[*honestTip] = struct{}{}

	honestTipBlock, _ := c.Get(*honestTip)
	c.virtualCompetingChainBlockParents = c.competingChainTipParents(*honestTip, c.competingChainTipAntipast, honestTipBlock.Parents)
}

// isAttackViable reports whether the blue-number gap between the honest
// coloring tip and the competing chain's tip is still within the
// configured maximal depth difference.
func (c *CompetingChainGreedyPHANTOM) isAttackViable() bool {
	if c.DidAttackFail() {
		return true
	}
	honestBlueNumber := c.nodes[*c.coloringTip].blueNumber
	attackerBlueNumber := c.nodes[*c.competingChainTipID].blueNumber
	return honestBlueNumber-attackerBlueNumber <= c.maximalDepthDifference
}

// competingChainTipParents finds the bottom-most (closest to the leaves)
// blocks in tipAntipast that the given tip is bluer than, removing any of
// their own ancestors from the candidate set as it goes.
func (c *CompetingChainGreedyPHANTOM) competingChainTipParents(tipID BlockID, tipAntipast BlockIDSet, initialParents []BlockID) BlockIDSet {
	parents := make(BlockIDSet, len(initialParents))
	visited := make(BlockIDSet, len(initialParents))
	for _, id := range initialParents {
		parents[id] = struct{}{}
		visited[id] = struct{}{}
	}

	queue := make([]BlockID, 0, len(c.leaves))
	for leafID := range c.leaves {
		queue = append(queue, leafID)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		if _, ok := tipAntipast[id]; !ok {
			continue
		}
		visited[id] = struct{}{}

		if c.isABluerThanB(tipID, id) {
			parents[id] = struct{}{}

			ancestorQueue := append([]BlockID(nil), c.nodes[id].block.Parents...)
			for len(ancestorQueue) > 0 {
				ancestorID := ancestorQueue[0]
				ancestorQueue = ancestorQueue[1:]
				if _, ok := tipAntipast[ancestorID]; !ok {
					continue
				}
				visited[ancestorID] = struct{}{}
				delete(parents, ancestorID)
				ancestorQueue = append(ancestorQueue, c.nodes[ancestorID].block.Parents...)
			}
		} else {
			queue = append(queue, c.nodes[id].block.Parents...)
		}
	}

	return parents
}

// VirtualBlockParents returns the combined DAG's tips, malicious blocks
// included, when isMalicious is false (or when fewer than two blocks have
// been added); otherwise it returns the
// parents for the next block on the attacker's private chain, restarting
// the attack first if the previous one has ended.
func (c *CompetingChainGreedyPHANTOM) VirtualBlockParents(isMalicious bool) BlockIDSet {
	if !isMalicious || c.Len() <= 1 {
		return c.GreedyPHANTOM.VirtualBlockParents()
	}
	if c.DidAttackFail() {
		c.restartAttack()
	}
	out := make(BlockIDSet, len(c.virtualCompetingChainBlockParents))
	for id := range c.virtualCompetingChainBlockParents {
		out[id] = struct{}{}
	}
	return out
}

// DidAttackSucceed reports whether the attacker's first parallel block has
// reached confirmation depth in the combined DAG, the block it targeted has
// reached confirmation depth in the honest sub-DAG, and the attacker's block
// is ordered ahead of the targeted block.
func (c *CompetingChainGreedyPHANTOM) DidAttackSucceed() bool {
	if c.DidAttackFail() {
		return false
	}
	if c.GetDepth(*c.firstParallelBlock) < int64(c.confirmationDepth) {
		return false
	}
	if c.honestDAG.GetDepth(*c.currentlyAttackedBlock) < int64(c.confirmationDepth) {
		return false
	}
	before, ok := c.IsABeforeB(*c.firstParallelBlock, *c.currentlyAttackedBlock)
	return ok && before
}

// SetK reconfigures k for both the combined DAG and the honest sub-DAG.
func (c *CompetingChainGreedyPHANTOM) SetK(k uint64) {
	c.GreedyPHANTOM.SetK(k)
	c.honestDAG.SetK(k)
}
