package ir

// Body returns the nested block owned by a container statement, or nil if
// s is a straight-line statement with no body of its own.
func Body(s Stmt) *Block {
	switch v := s.(type) {
	case *OffloadedStmt:
		return v.Body
	case *WhileLoopStmt:
		return v.Body
	case *RangeForStmt:
		return v.Body
	case *StructForStmt:
		return v.Body
	default:
		return nil
	}
}

// RootPointer repeatedly unwraps a PtrOffsetStmt chain to the first
// non-offset statement, i.e. the statement that actually owns the storage
// being addressed. A nil input returns nil.
func RootPointer(s Stmt) Stmt {
	for {
		if s == nil {
			return nil
		}
		off, ok := s.(*PtrOffsetStmt)
		if !ok {
			return s
		}
		s = off.Origin
	}
}

// WalkAll calls visit for every statement reachable from b in preorder,
// descending into nested bodies (loop bodies, task bodies). Containers are
// visited themselves before their body, mirroring the external IR's
// preprocess-then-descend traversal order.
func WalkAll(b *Block, visit func(Stmt)) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		visit(s)
		if body := Body(s); body != nil {
			WalkAll(body, visit)
		}
	}
}

// ReplaceAllUsesWith rewrites every operand reference to old, anywhere in
// the subtree rooted at scope, to new. It is used right after lifting a
// loop into its own OffloadedStmt: within the loop's own (not yet moved)
// body, any statement that read the loop as its iteration value must now
// read the replacement task instead.
func ReplaceAllUsesWith(scope *Block, old, new Stmt) {
	WalkAll(scope, func(s Stmt) {
		for i := 0; i < s.NumOperands(); i++ {
			if s.Operand(i) == old {
				s.SetOperand(i, new)
			}
		}
	})
}

// ReId assigns fresh sequential ids to every statement reachable from root,
// including the root's direct children and everything nested under them.
// It is the final step of the top-level pipeline; nothing inside the
// offloading pass itself depends on the numeric value of an id.
func ReId(root *Block) {
	next := StmtID(0)
	assign := func(s Stmt) {
		s.SetID(next)
		next++
	}
	WalkAll(root, assign)
}
