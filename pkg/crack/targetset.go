package crack

import "golang.org/x/exp/slices"

// TargetSet is an immutable ascending-sorted collection of target hash
// values. It is built once per search invocation; membership tests are
// read-only, so it is safe to share across workers without locking.
type TargetSet struct {
	hashes []uint32
}

// NewTargetSet copies and sorts the given hash values. The input may be
// unsorted and may contain duplicates.
func NewTargetSet(hashes []uint32) *TargetSet {
	sorted := make([]uint32, len(hashes))
	copy(sorted, hashes)
	slices.Sort(sorted)
	return &TargetSet{hashes: sorted}
}

// Contains reports whether h is one of the targets. O(log n).
func (t *TargetSet) Contains(h uint32) bool {
	_, found := slices.BinarySearch(t.hashes, h)
	return found
}

// Len returns the number of target values, duplicates included.
func (t *TargetSet) Len() int { return len(t.hashes) }

// Values returns the sorted target values. Callers must not modify the
// returned slice.
func (t *TargetSet) Values() []uint32 { return t.hashes }
