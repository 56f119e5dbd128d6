package merkle

import "fmt"

// Tree is an in-memory Merkle tree over a fixed, ordered leaf set. It is the
// builder side of the commitment scheme: callers hash their records into
// leaves, build the tree, publish Root, and hand out Proof slices that
// VerifyProof later checks against the published root.
//
// A Tree is immutable after construction. Changing the underlying set means
// building a new tree and republishing its root.
type Tree struct {
	// levels[0] is the leaf level; each subsequent level is half the size
	// (rounded up) and the last level holds only the root.
	levels [][]Hash
}

// NewTree builds a tree bottom-up from leaves. When a level has an odd
// number of nodes, the last node is paired with a copy of itself. The
// duplication rule is load-bearing: VerifyProof's index walk assumes it,
// and any other odd-node rule produces roots the walk cannot reach.
//
// The leaf slice is copied; the caller may reuse it.
func NewTree(leaves []Hash) *Tree {
	t := &Tree{}
	if len(leaves) == 0 {
		return t
	}
	level := make([]Hash, len(leaves))
	copy(level, leaves)
	t.levels = append(t.levels, level)
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, HashNodes(level[i], level[i+1]))
			} else {
				next = append(next, HashNodes(level[i], level[i]))
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels[0])
}

// Root returns the tree's commitment. The empty tree commits to ZeroHash, and
// a single-leaf tree's root is the leaf hash itself.
func (t *Tree) Root() Hash {
	if len(t.levels) == 0 {
		return ZeroHash
	}
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the sibling path for the leaf at index, ordered from the
// leaf level upward, ready to feed to VerifyProof with the same index.
// Every proof from one tree has the same length regardless of index.
func (t *Tree) Proof(index uint32) ([]Hash, error) {
	if uint64(index) >= uint64(t.Len()) {
		return nil, fmt.Errorf("leaf index %d out of range for %d leaves", index, t.Len())
	}
	proof := make([]Hash, 0, len(t.levels)-1)
	idx := int(index)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling >= len(level) {
			// Odd node at the level edge: its sibling is its own copy.
			sibling = idx
		}
		proof = append(proof, level[sibling])
		idx /= 2
	}
	return proof, nil
}

// Leaves returns a copy of the leaf level in insertion order.
func (t *Tree) Leaves() []Hash {
	if len(t.levels) == 0 {
		return nil
	}
	out := make([]Hash, len(t.levels[0]))
	copy(out, t.levels[0])
	return out
}
