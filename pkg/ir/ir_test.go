package ir

import "testing"

func TestDataTypeByteSize(t *testing.T) {
	tests := []struct {
		name string
		t    DataType
		want int
	}{
		{"scalar 4 bytes", Scalar(4), 4},
		{"scalar 8 bytes", Scalar(8), 8},
		{"pointer is 8-byte scalar", PointerType(8), 8},
		{"tensor of 4 elements of 4 bytes", TensorOf(4, 4), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.ByteSize(); got != tt.want {
				t.Errorf("ByteSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDataTypeElementCount(t *testing.T) {
	if got := Scalar(4).ElementCount(); got != 1 {
		t.Errorf("scalar ElementCount() = %d, want 1", got)
	}
	if got := TensorOf(3, 4).ElementCount(); got != 3 {
		t.Errorf("tensor ElementCount() = %d, want 3", got)
	}
}

func TestBlockAppendSetsParent(t *testing.T) {
	b := NewBlock()
	c := NewInt32Const(1)
	b.Append(c)
	if c.Parent() != b {
		t.Errorf("Append did not set parent")
	}
	if len(b.Stmts) != 1 || b.Stmts[0] != c {
		t.Errorf("Append did not place statement at end")
	}
}

func TestBlockInsertAfterBefore(t *testing.T) {
	b := NewBlock()
	a := ir32(1)
	c := ir32(3)
	b.Append(a)
	b.Append(c)

	mid := ir32(2)
	b.InsertAfter(a, mid)
	if !sameOrder(b, a, mid, c) {
		t.Fatalf("InsertAfter produced wrong order: %v", dumpIDs(b))
	}

	first := ir32(0)
	b.InsertBefore(a, first)
	if !sameOrder(b, first, a, mid, c) {
		t.Fatalf("InsertBefore produced wrong order: %v", dumpIDs(b))
	}
}

func TestBlockReplaceWith(t *testing.T) {
	b := NewBlock()
	a := ir32(1)
	target := ir32(2)
	c := ir32(3)
	b.Append(a)
	b.Append(target)
	b.Append(c)

	r1, r2 := ir32(20), ir32(21)
	b.ReplaceWith(target, []Stmt{r1, r2})

	if !sameOrder(b, a, r1, r2, c) {
		t.Fatalf("ReplaceWith produced wrong order: %v", dumpIDs(b))
	}
	if target.Parent() != nil {
		t.Errorf("replaced statement still has a parent")
	}
}

func TestBlockMoveAllInto(t *testing.T) {
	src := NewBlock()
	dst := NewBlock()
	a, c := ir32(1), ir32(2)
	src.Append(a)
	src.Append(c)
	existing := ir32(0)
	dst.Append(existing)

	dst.MoveAllInto(src)

	if len(src.Stmts) != 0 {
		t.Errorf("source block not emptied, has %d statements", len(src.Stmts))
	}
	if !sameOrder(dst, existing, a, c) {
		t.Fatalf("MoveAllInto produced wrong order: %v", dumpIDs(dst))
	}
	if a.Parent() != dst {
		t.Errorf("moved statement's parent not updated")
	}
}

func TestReplaceAllUsesWith(t *testing.T) {
	b := NewBlock()
	begin, end := ir32(0), ir32(10)
	loop := NewRangeFor(begin, end)
	b.Append(loop)

	use := &LocalStoreStmt{Dest: nil, Val: loop}
	loop.Body.Append(use)

	task := NewOffloaded(TaskRangeFor, ArchCPU)
	ReplaceAllUsesWith(loop.Body, loop, task)

	if use.Val != task {
		t.Errorf("ReplaceAllUsesWith did not rewrite the use; got %v", use.Val)
	}
}

func TestReId(t *testing.T) {
	root := NewBlock()
	task := NewOffloaded(TaskSerial, ArchCPU)
	root.Append(task)
	inner := ir32(1)
	task.Body.Append(inner)

	ReId(root)

	if task.ID() != 0 {
		t.Errorf("task id = %d, want 0", task.ID())
	}
	if inner.ID() != 1 {
		t.Errorf("inner id = %d, want 1", inner.ID())
	}
}

func TestRootPointerUnwrapsOffsetChain(t *testing.T) {
	root := &GlobalTemporaryStmt{Offset: 16}
	root.SetType(PointerType(4))
	idx := NewInt32Const(0)
	off1 := NewPtrOffset(root, idx)
	off2 := NewPtrOffset(off1, idx)

	if got := RootPointer(off2); got != root {
		t.Errorf("RootPointer() = %v, want %v", got, root)
	}
	if got := RootPointer(root); got != root {
		t.Errorf("RootPointer on a non-offset statement should return itself")
	}
	if got := RootPointer(nil); got != nil {
		t.Errorf("RootPointer(nil) = %v, want nil", got)
	}
}

// ---- helpers ----

func ir32(v int32) *ConstStmt { return NewInt32Const(v) }

func sameOrder(b *Block, want ...Stmt) bool {
	if len(b.Stmts) != len(want) {
		return false
	}
	for i, s := range want {
		if b.Stmts[i] != s {
			return false
		}
	}
	return true
}

func dumpIDs(b *Block) []int32 {
	out := make([]int32, len(b.Stmts))
	for i, s := range b.Stmts {
		if c, ok := s.(*ConstStmt); ok {
			out[i] = c.Int32Val
		}
	}
	return out
}
