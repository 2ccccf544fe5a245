// Package examples builds small pre-offload IR trees by hand, standing in
// for the full DSL front end that would normally produce them. Since that
// front end is out of scope for the offloading pass, these are the fixtures
// the CLI demos and the pass's own tests run against.
package examples

import (
	"github.com/minz/sparsec/pkg/ir"
	"github.com/minz/sparsec/pkg/offload"
	"github.com/minz/sparsec/pkg/snode"
)

// DefaultConfig returns a Config with reasonable constants for running any
// of the examples below; callers may copy and tweak it.
func DefaultConfig() *offload.Config {
	return &offload.Config{
		Arch:               ir.ArchCUDA,
		SaturatingGridDim:  512,
		DefaultGPUBlockDim: 256,
		MaxBlockDim:        1024,
		CPUMaxNumThreads:   8,
	}
}

// PureSerial builds scenario S1: three straight-line statements with no
// loops at all.
func PureSerial() *ir.Block {
	root := ir.NewBlock()
	a := ir.NewInt32Const(1)
	b := ir.NewInt32Const(2)
	root.Append(a)
	root.Append(b)
	root.Append(ir.NewGlobalStore(a, b))
	return root
}

// RangeForConstBounds builds scenario S2: a single range-for loop whose
// begin and end are both compile-time integer constants.
func RangeForConstBounds() *ir.Block {
	root := ir.NewBlock()
	begin := ir.NewInt32Const(0)
	end := ir.NewInt32Const(10)
	loop := ir.NewRangeFor(begin, end)
	root.Append(begin)
	root.Append(end)
	root.Append(loop)

	one := ir.NewInt32Const(1)
	loop.Body.Append(one)
	loop.Body.Append(ir.NewGlobalStore(loop, one))
	return root
}

// RangeForDynamicEnd builds scenario S3: a local alloca initialized from a
// kernel argument, then a range-for whose end bound is a load of that
// local.
func RangeForDynamicEnd() *ir.Block {
	root := ir.NewBlock()

	x := ir.NewLocalAlloca("n", ir.Scalar(4))
	root.Append(x)

	arg := &ir.ArgLoadStmt{}
	arg.SetType(ir.Scalar(4))
	root.Append(arg)
	root.Append(&ir.LocalStoreStmt{Dest: x, Val: arg})

	begin := ir.NewInt32Const(0)
	endLoad := &ir.LocalLoadStmt{Src: x}
	endLoad.SetType(ir.Scalar(4))
	root.Append(begin)
	root.Append(endLoad)

	loop := ir.NewRangeFor(begin, endLoad)
	root.Append(loop)
	return root
}

// CrossTaskScalarLift builds scenario S4: two range-for loops where the
// first stores into a local that the second one reads; the local must
// survive the task boundary through the global temporaries region.
func CrossTaskScalarLift() *ir.Block {
	root := ir.NewBlock()

	y := ir.NewLocalAlloca("y", ir.Scalar(4))
	root.Append(y)

	begin1 := ir.NewInt32Const(0)
	end1 := ir.NewInt32Const(10)
	loop1 := ir.NewRangeFor(begin1, end1)
	root.Append(begin1)
	root.Append(end1)
	root.Append(loop1)

	written := ir.NewInt32Const(7)
	loop1.Body.Append(written)
	loop1.Body.Append(&ir.LocalStoreStmt{Dest: y, Val: written})

	begin2 := ir.NewInt32Const(0)
	end2 := ir.NewInt32Const(10)
	loop2 := ir.NewRangeFor(begin2, end2)
	root.Append(begin2)
	root.Append(end2)
	root.Append(loop2)

	read := &ir.LocalLoadStmt{Src: y}
	read.SetType(ir.Scalar(4))
	loop2.Body.Append(read)
	loop2.Body.Append(ir.NewGlobalStore(y, read))
	return root
}

// StructForThreeLevelPath builds scenario S5: a struct-for loop over a leaf
// place node whose root-to-leaf path has three entries (root, one interior
// pointer level, the leaf place itself); the path is not all-dense, so the
// clear/listgen preamble is not demoted away. Per the struct-for emission
// rule, the preamble loop runs over the path including the leaf entry
// itself (skipped only when the leaf's own type is bit_array/bit_struct,
// which it isn't here) — so both the interior level and the leaf get their
// own clear_list/listgen pair, and the final struct_for task targets the
// same leaf SNode.
func StructForThreeLevelPath() (*ir.Block, map[int]*snode.SNode) {
	rootNode := &snode.SNode{ID: 0, Type: snode.TypeRoot}
	interior := &snode.SNode{ID: 1, Type: snode.TypePointer, Parent: rootNode, MaxElements: 1024}
	leaf := &snode.SNode{ID: 2, Type: snode.TypePlace, Parent: interior, MaxElements: 4096}
	rootNode.Children = []*snode.SNode{interior}
	interior.Children = []*snode.SNode{leaf}

	snodes := map[int]*snode.SNode{
		rootNode.ID: rootNode,
		interior.ID: interior,
		leaf.ID:     leaf,
	}

	root := ir.NewBlock()
	loop := ir.NewStructFor(leaf.ID)
	root.Append(loop)

	ptr := &ir.GlobalPtrStmt{SNodeID: leaf.ID, Activate: false}
	ptr.SetType(ir.PointerType(4))
	loop.Body.Append(ptr)
	val := ir.NewInt32Const(1)
	loop.Body.Append(val)
	loop.Body.Append(ir.NewGlobalStore(ptr, val))

	return root, snodes
}

// DeactivationTriggersGC builds scenario S6: a single-task program whose
// body deactivates a GC-eligible SNode.
func DeactivationTriggersGC() (*ir.Block, map[int]*snode.SNode) {
	rootNode := &snode.SNode{ID: 0, Type: snode.TypeRoot}
	pointerNode := &snode.SNode{ID: 1, Type: snode.TypePointer, Parent: rootNode, MaxElements: 256}
	rootNode.Children = []*snode.SNode{pointerNode}

	snodes := map[int]*snode.SNode{
		rootNode.ID:    rootNode,
		pointerNode.ID: pointerNode,
	}

	root := ir.NewBlock()
	ptr := &ir.GlobalPtrStmt{SNodeID: pointerNode.ID, Activate: false}
	ptr.SetType(ir.PointerType(4))
	root.Append(ptr)
	root.Append(&ir.DeactivateStmt{SNodeID: pointerNode.ID, Ptr: ptr})
	return root, snodes
}
