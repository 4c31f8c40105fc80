package repository

import (
	"hash/fnv"

	"github.com/okian/signingday/internal/domain/model"
)

// Treap-based prospect board.
//
// Ordering: potential DESC, then recruit ID ASC. "less" means ranks earlier,
// so in-order traversal yields the board from best to worst. Priorities are
// a hash of the ID, which keeps the tree shape deterministic across runs.

type node struct {
	id        string
	potential int
	prio      uint64
	left      *node
	right     *node
	size      int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aPot int, aID string, bPot int, bID string) bool {
	if aPot != bPot {
		return aPot > bPot
	}
	return aID < bID
}

func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, potential int) *node {
	if n == nil {
		return &node{id: id, potential: potential, prio: priority(id), size: 1}
	}
	if less(potential, id, n.potential, n.id) {
		n.left = insert(n.left, id, potential)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, potential)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, potential int) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id && n.potential == potential:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, potential)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, potential)
		}
	case less(potential, id, n.potential, n.id):
		n.left = deleteNode(n.left, id, potential)
	default:
		n.right = deleteNode(n.right, id, potential)
	}
	fix(n)
	return n
}

// position returns the 0-based in-order index of (potential, id).
func position(n *node, id string, potential int) int {
	pos := 0
	for n != nil {
		if n.id == id && n.potential == potential {
			return pos + nsize(n.left)
		}
		if less(potential, id, n.potential, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// prospectBoard is not safe for concurrent use; MemoryStore guards it with
// poolMu.
type prospectBoard struct {
	root *node
	byID map[string]model.Recruit
}

func newProspectBoard() *prospectBoard {
	return &prospectBoard{byID: make(map[string]model.Recruit)}
}

func (b *prospectBoard) add(r model.Recruit) {
	if old, ok := b.byID[r.ID]; ok {
		b.root = deleteNode(b.root, old.ID, old.Potential)
	}
	b.byID[r.ID] = r
	b.root = insert(b.root, r.ID, r.Potential)
}

func (b *prospectBoard) remove(id string) {
	old, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)
	b.root = deleteNode(b.root, old.ID, old.Potential)
}

func (b *prospectBoard) len() int { return nsize(b.root) }

// top returns up to n prospects. Recruits with equal potential share a rank
// and the next distinct potential takes the following position (1, 1, 3).
func (b *prospectBoard) top(n int) []Prospect {
	nodes := make([]*node, 0, min(n, b.len()))
	collectTopN(b.root, n, &nodes)
	out := make([]Prospect, 0, len(nodes))
	for i, nd := range nodes {
		rank := i + 1
		if i > 0 && nd.potential == nodes[i-1].potential {
			rank = out[i-1].Rank
		}
		out = append(out, b.prospect(nd.id, rank))
	}
	return out
}

func (b *prospectBoard) rank(id string) (Prospect, bool) {
	r, ok := b.byID[id]
	if !ok {
		return Prospect{}, false
	}
	// The first recruit with this potential sorts before every other one
	// sharing it, so its position is the shared rank.
	first := position(b.root, id, r.Potential)
	for first > 0 {
		prev := b.at(first - 1)
		if prev == nil || prev.potential != r.Potential {
			break
		}
		first--
	}
	return b.prospect(id, first+1), true
}

// at returns the node at 0-based in-order index i.
func (b *prospectBoard) at(i int) *node {
	n := b.root
	for n != nil {
		ls := nsize(n.left)
		switch {
		case i < ls:
			n = n.left
		case i == ls:
			return n
		default:
			i -= ls + 1
			n = n.right
		}
	}
	return nil
}

func (b *prospectBoard) prospect(id string, rank int) Prospect {
	r := b.byID[id]
	return Prospect{
		Rank:      rank,
		RecruitID: r.ID,
		Name:      r.Name,
		Position:  r.Position,
		Potential: r.Potential,
	}
}
