package phantom

import (
	"testing"

	"github.com/AvivYaish/PHANTOM/dagconfig"
)

func paramsWithK(k uint64) dagconfig.Params {
	return dagconfig.Params{Name: "test", K: k, ConfirmationDepth: 1, MaximalDepthDifference: 1}
}

func addChain(t *testing.T, dag DAG, edges []struct {
	id      BlockID
	parents []BlockID
}) {
	t.Helper()
	for _, e := range edges {
		if err := dag.Add(&Block{ID: e.id, Parents: e.parents}); err != nil {
			t.Fatalf("Add(%d) failed: %s", e.id, err)
		}
	}
}

// S1: a lone genesis block.
func TestGreedyPHANTOM_Genesis(t *testing.T) {
	g := NewGreedyPHANTOM(paramsWithK(10))
	if err := g.Add(&Block{ID: 0}); err != nil {
		t.Fatalf("Add(0): %s", err)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
	parents := g.VirtualBlockParents()
	if _, ok := parents[0]; len(parents) != 1 || !ok {
		t.Errorf("VirtualBlockParents() = %v, want {0}", parents)
	}
	before, ok := g.IsABeforeB(0, 0)
	if !ok || !before {
		t.Errorf("IsABeforeB(0, 0) = (%v, %v), want (true, true)", before, ok)
	}
	if depth := g.GetDepth(0); depth != 0 {
		t.Errorf("GetDepth(0) = %d, want 0", depth)
	}
}

// S2: chain 0<-1<-3 with a fork 0<-2 that 3 also names as a parent,
// inserted in id order.
func TestGreedyPHANTOM_ChainWithFork(t *testing.T) {
	g := NewGreedyPHANTOM(paramsWithK(10))
	addChain(t, g, []struct {
		id      BlockID
		parents []BlockID
	}{
		{0, nil},
		{1, []BlockID{0}},
		{2, []BlockID{0}},
		{3, []BlockID{1, 2}},
	})

	parents := g.VirtualBlockParents()
	if _, ok := parents[3]; len(parents) != 1 || !ok {
		t.Errorf("VirtualBlockParents() = %v, want {3}", parents)
	}
	for _, id := range []BlockID{0, 1, 2, 3} {
		if !g.IsBlue(id) {
			t.Errorf("IsBlue(%d) = false, want true (k=10 colors everything)", id)
		}
	}
	before, ok := g.IsABeforeB(2, 3)
	if !ok || !before {
		t.Errorf("IsABeforeB(2, 3) = (%v, %v), want (true, true)", before, ok)
	}
}

// S3: two-branch fork under different k values.
func buildS3(t *testing.T, k uint64) *GreedyPHANTOM {
	g := NewGreedyPHANTOM(paramsWithK(k))
	addChain(t, g, []struct {
		id      BlockID
		parents []BlockID
	}{
		{0, nil},
		{1, []BlockID{0}},
		{2, []BlockID{0}},
		{3, []BlockID{1, 2}},
		{4, []BlockID{0}},
		{5, []BlockID{4}},
		{6, []BlockID{5}},
	})
	return g
}

func blueSet(t *testing.T, g *GreedyPHANTOM, ids []BlockID) map[BlockID]bool {
	t.Helper()
	out := make(map[BlockID]bool, len(ids))
	for _, id := range ids {
		out[id] = g.IsBlue(id)
	}
	return out
}

func TestGreedyPHANTOM_TwoBranchFork(t *testing.T) {
	allIDs := []BlockID{0, 1, 2, 3, 4, 5, 6}

	tests := []struct {
		k            uint64
		expectedBlue []BlockID
	}{
		{k: 1, expectedBlue: []BlockID{0, 1, 2, 3}},
		{k: 0, expectedBlue: []BlockID{0, 4, 5, 6}},
		{k: 3, expectedBlue: allIDs},
	}

	for _, tt := range tests {
		g := buildS3(t, tt.k)
		got := blueSet(t, g, allIDs)
		want := make(map[BlockID]bool, len(allIDs))
		for _, id := range tt.expectedBlue {
			want[id] = true
		}
		for _, id := range allIDs {
			if got[id] != want[id] {
				t.Errorf("k=%d: IsBlue(%d) = %v, want %v", tt.k, id, got[id], want[id])
			}
		}
	}
}

func TestGreedyPHANTOM_DuplicateAndUnknownParent(t *testing.T) {
	g := NewGreedyPHANTOM(paramsWithK(10))
	if err := g.Add(&Block{ID: 0}); err != nil {
		t.Fatalf("Add(0): %s", err)
	}
	if err := g.Add(&Block{ID: 0}); err == nil {
		t.Error("Add(duplicate 0) succeeded, want error")
	}

	// An unknown parent id is skipped silently wherever it's traversed,
	// not rejected - only blockchain.Blockchain legitimately rejects a
	// block over a missing parent (spec.md I1/§7).
	if err := g.Add(&Block{ID: 1, Parents: []BlockID{99}}); err != nil {
		t.Fatalf("Add(block with only an unknown parent): %s", err)
	}
	if !g.Contains(1) {
		t.Fatal("block 1 wasn't added despite its unknown parent being skipped")
	}
	if g.Contains(99) {
		t.Error("unknown parent 99 was implicitly registered, want it to stay absent")
	}

	// A known parent alongside an unknown one is still honored normally.
	if err := g.Add(&Block{ID: 2, Parents: []BlockID{0, 98}}); err != nil {
		t.Fatalf("Add(block with a mix of known and unknown parents): %s", err)
	}
	if !g.IsBlue(2) {
		t.Error("IsBlue(2) = false, want true (its known parent 0 still colors it normally)")
	}
}

func TestGreedyPHANTOM_IsABeforeB_AbsentIDs(t *testing.T) {
	g := NewGreedyPHANTOM(paramsWithK(10))
	if err := g.Add(&Block{ID: 0}); err != nil {
		t.Fatalf("Add(0): %s", err)
	}

	if _, ok := g.IsABeforeB(5, 6); ok {
		t.Error("IsABeforeB with both ids absent should report ok=false")
	}
	before, ok := g.IsABeforeB(0, 6)
	if !ok || !before {
		t.Errorf("IsABeforeB(present, absent) = (%v, %v), want (true, true)", before, ok)
	}
	before, ok = g.IsABeforeB(6, 0)
	if !ok || before {
		t.Errorf("IsABeforeB(absent, present) = (%v, %v), want (false, true)", before, ok)
	}
}

func TestGreedyPHANTOM_SetK_Rebuilds(t *testing.T) {
	g := buildS3(t, 1)
	allIDs := []BlockID{0, 1, 2, 3, 4, 5, 6}
	g.SetK(3)
	got := blueSet(t, g, allIDs)
	for _, id := range allIDs {
		if !got[id] {
			t.Errorf("after SetK(3): IsBlue(%d) = false, want true", id)
		}
	}
}
