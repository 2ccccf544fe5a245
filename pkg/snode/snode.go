// Package snode models the sparse-structure (SNode) tree the offloading
// pass reads but never mutates: the hierarchical data structure a struct-for
// loop iterates and a deactivation can prune. Type checking, layout, and
// allocation of the structure itself live elsewhere; this package only
// carries the shape the pass needs to consult.
package snode

// Type enumerates the SNode node kinds the pass distinguishes.
type Type int

const (
	TypeRoot Type = iota
	TypeDense
	TypePointer
	TypeBitmasked
	TypeBitArray
	TypeBitStruct
	TypePlace
)

func (t Type) String() string {
	switch t {
	case TypeRoot:
		return "root"
	case TypeDense:
		return "dense"
	case TypePointer:
		return "pointer"
	case TypeBitmasked:
		return "bitmasked"
	case TypeBitArray:
		return "bit_array"
	case TypeBitStruct:
		return "bit_struct"
	case TypePlace:
		return "place"
	default:
		return "unknown"
	}
}

// SNode is one node of the sparse structure tree.
type SNode struct {
	ID       int
	Type     Type
	Parent   *SNode
	Children []*SNode
	// MaxElements is the static upper bound on the number of active
	// elements this node can hold; used to size listgen/struct_for block
	// dims and to clip an over-large explicit block_dim.
	MaxElements int
	// IsPathAllDense is true when every node from the root down to this
	// one (inclusive) is TypeDense; such paths never need a clear/listgen
	// preamble since there is nothing sparse to activate.
	IsPathAllDense bool
}

// PathFromRoot returns the chain of nodes from the tree root down to leaf,
// inclusive, in root-to-leaf order.
func PathFromRoot(leaf *SNode) []*SNode {
	var rev []*SNode
	for p := leaf; p != nil; p = p.Parent {
		rev = append(rev, p)
	}
	path := make([]*SNode, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}

// IsGCAble reports whether a node of this type can be targeted by a gc
// task. Only structures capable of holding deactivatable, reusable storage
// qualify; dense and plain place nodes have nothing to collect.
func IsGCAble(t Type) bool {
	switch t {
	case TypePointer, TypeBitmasked:
		return true
	default:
		return false
	}
}
