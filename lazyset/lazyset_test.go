package lazyset

import (
	"sort"
	"testing"
)

func toSortedSlice(s Set[int]) []int {
	out := make([]int, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func lazyToSortedSlice(s *LazySet[int]) []int {
	out := make([]int, 0)
	for item := range s.Iter() {
		out = append(out, item)
	}
	sort.Ints(out)
	return out
}

func equalSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLazySetRoundTrip(t *testing.T) {
	base := NewSetFromSlice(1, 2, 3, 4)
	neg1 := NewSetFromSlice(2)
	neg2 := NewSetFromSlice(3)
	pos1 := NewSetFromSlice(5, 6)

	s := New(base, []Set[int]{neg1, neg2}, []Set[int]{pos1})

	want := map[int]bool{1: true, 4: true, 5: true, 6: true}
	for i := 1; i <= 6; i++ {
		if got := s.Contains(i); got != want[i] {
			t.Errorf("Contains(%d) = %v, want %v", i, got, want[i])
		}
	}

	gotLen := s.Len()
	if gotLen != len(want) {
		t.Errorf("Len() = %d, want %d", gotLen, len(want))
	}

	flat := s.Copy().Flatten(false)
	wantSlice := []int{1, 4, 5, 6}
	if got := lazyToSortedSlice(flat); !equalSlices(got, wantSlice) {
		t.Errorf("flattened elements = %v, want %v", got, wantSlice)
	}
}

func TestLazySetFlattenIsIdempotentAndSinglePositiveLayer(t *testing.T) {
	s := New(NewSetFromSlice(1, 2, 3), []Set[int]{NewSetFromSlice(2)}, nil)
	s.Flatten(false)
	s.Flatten(false)

	if len(s.layers) != 1 || s.layers[0].sign != positive {
		t.Fatalf("expected exactly one positive layer after flatten, got %+v", s.layers)
	}

	want := []int{1, 3}
	if got := lazyToSortedSlice(s); !equalSlices(got, want) {
		t.Errorf("elements after flatten = %v, want %v", got, want)
	}
}

func TestLazySetFlattenModifyFalseDoesNotMutateSharedLayer(t *testing.T) {
	shared := NewSetFromSlice(1, 2, 3)
	s := New(shared, nil, []Set[int]{NewSetFromSlice(4)})
	s.Flatten(false)

	if _, ok := shared[4]; ok {
		t.Fatalf("Flatten(false) must not mutate the original backing set, shared = %v", shared)
	}
}

func TestLazySetContainsScansLatestLayerFirst(t *testing.T) {
	s := New(NewSetFromSlice(1), nil, nil)
	s.LazyDifferenceUpdate(NewSetFromSlice(1))
	s.LazyUpdate(NewSetFromSlice(1))

	if !s.Contains(1) {
		t.Fatal("the latest (positive) layer should win, 1 should be a member")
	}
}

func TestLazySetUpdateAndDifferenceUpdate(t *testing.T) {
	s := New(NewSetFromSlice(1, 2), nil, nil)
	s.Update(NewSetFromSlice(3))
	s.DifferenceUpdate(NewSetFromSlice(1))

	want := []int{2, 3}
	if got := lazyToSortedSlice(s); !equalSlices(got, want) {
		t.Errorf("elements = %v, want %v", got, want)
	}
}

func TestLazySetIntersectionUpdateFlattens(t *testing.T) {
	s := New(NewSetFromSlice(1, 2, 3, 4), nil, nil)
	s.IntersectionUpdate(NewSetFromSlice(2, 3, 5))

	want := []int{2, 3}
	if got := lazyToSortedSlice(s); !equalSlices(got, want) {
		t.Errorf("elements = %v, want %v", got, want)
	}
}

func TestLazySetSymmetricDifference(t *testing.T) {
	s := New(NewSetFromSlice(1, 2, 3), nil, nil)
	sym := s.SymmetricDifference(NewSetFromSlice(2, 3, 4))

	want := []int{1, 4}
	if got := lazyToSortedSlice(sym); !equalSlices(got, want) {
		t.Errorf("symmetric difference = %v, want %v", got, want)
	}
	// s itself must be unmodified.
	if got := lazyToSortedSlice(s); !equalSlices(got, []int{1, 2, 3}) {
		t.Errorf("original set mutated by SymmetricDifference: %v", got)
	}
}

func TestLazySetSubsetSupersetEqual(t *testing.T) {
	s := New(NewSetFromSlice(1, 2), nil, nil)

	if !s.IsSubsetOf(NewSetFromSlice(1, 2, 3)) {
		t.Error("expected {1,2} to be a subset of {1,2,3}")
	}
	if s.IsSubsetOf(NewSetFromSlice(1)) {
		t.Error("expected {1,2} to not be a subset of {1}")
	}
	if !s.IsSupersetOf(NewSetFromSlice(1)) {
		t.Error("expected {1,2} to be a superset of {1}")
	}
	if !s.Equal(NewSetFromSlice(1, 2)) {
		t.Error("expected {1,2} to equal {1,2}")
	}
}

func TestLazySetCopyIsIndependentOfFurtherMutation(t *testing.T) {
	s := New(NewSetFromSlice(1, 2), nil, nil)
	cp := s.Copy()
	s.Add(3)

	if cp.Contains(3) {
		t.Fatal("Copy must not observe layers appended to the original after the copy")
	}
}

func TestLazySetEmptyLayerIsNoOp(t *testing.T) {
	s := New(NewSetFromSlice(1), nil, nil)
	before := len(s.layers)
	s.LazyUpdate(Set[int]{})
	s.LazyDifferenceUpdate(Set[int]{})
	if len(s.layers) != before {
		t.Fatalf("empty layer updates should be no-ops, layer count changed from %d to %d", before, len(s.layers))
	}
}

func TestNewSetFromSlice(t *testing.T) {
	s := NewSetFromSlice(3, 1, 2, 2)
	if got := toSortedSlice(s); !equalSlices(got, []int{1, 2, 3}) {
		t.Errorf("NewSetFromSlice dedup result = %v, want [1 2 3]", got)
	}
}
