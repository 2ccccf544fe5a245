package offload

import "github.com/minz/sparsec/pkg/ir"

// promoteDefinitions is promotion sub-pass A: store-after-definition. It is
// driven as a fix-point — each call to promoteOnePass rewrites at most one
// statement before reporting "modified" and asking to be re-run, mirroring
// the external IR's throw-to-restart idiom without relying on exceptions.
func promoteDefinitions(root *ir.Block, offsets LocalToGlobalOffset, owners StmtToOffloaded) error {
	stored := map[ir.Stmt]bool{}
	for {
		modified, err := promoteOnePass(root, offsets, owners, stored)
		if err != nil {
			return err
		}
		if !modified {
			return nil
		}
	}
}

func promoteOnePass(root *ir.Block, offsets LocalToGlobalOffset, owners StmtToOffloaded, stored map[ir.Stmt]bool) (bool, error) {
	modified := false
	ir.WalkAll(root, func(s ir.Stmt) {
		if modified {
			return
		}
		if _, isAlloca := s.(*ir.LocalAllocaStmt); isAlloca {
			return
		}
		offset, ok := offsets[s]
		if !ok || stored[s] {
			return
		}
		owner := owners[s]
		block := s.Parent()

		tmp := ir.NewGlobalTemporary(offset, s.Type())
		owners[tmp] = owner
		block.InsertAfter(s, tmp)

		store := ir.NewGlobalStore(tmp, s)
		owners[store] = owner
		block.InsertAfter(tmp, store)

		stored[s] = true
		modified = true
	})
	return modified, nil
}

// fixReferences is promotion sub-pass B: cross-task reference rewrite. It
// runs to its own fix-point, then patches the begin/end offsets of every
// range_for task whose bound was not a compile-time constant.
func fixReferences(root *ir.Block, offsets LocalToGlobalOffset, owners StmtToOffloaded, ranges *Ranges) error {
	for {
		modified, err := fixOnePass(root, offsets, owners)
		if err != nil {
			return err
		}
		if !modified {
			break
		}
	}
	return patchRangeOffsets(root, offsets, ranges)
}

func fixOnePass(root *ir.Block, offsets LocalToGlobalOffset, owners StmtToOffloaded) (bool, error) {
	modified := false
	var walkErr error
	ir.WalkAll(root, func(s ir.Stmt) {
		if modified || walkErr != nil {
			return
		}
		switch v := s.(type) {
		case *ir.LocalAllocaStmt:
			if rewriteAlloca(v, offsets, owners) {
				modified = true
			}
		case *ir.LocalLoadStmt:
			mod, err := rewriteLocalLoad(v, offsets, owners)
			if err != nil {
				walkErr = err
				return
			}
			if mod {
				modified = true
			}
		case *ir.LocalStoreStmt:
			mod, err := rewriteLocalStore(v, offsets, owners)
			if err != nil {
				walkErr = err
				return
			}
			if mod {
				modified = true
			}
		default:
			mod, err := fixOperands(s, offsets, owners)
			if err != nil {
				walkErr = err
				return
			}
			if mod {
				modified = true
			}
		}
	})
	if walkErr != nil {
		return false, walkErr
	}
	return modified, nil
}

// rewriteAlloca replaces a promoted local alloca with a global-temporary
// pointer plus an explicit zero-initialization of its slot.
func rewriteAlloca(v *ir.LocalAllocaStmt, offsets LocalToGlobalOffset, owners StmtToOffloaded) bool {
	offset, ok := offsets[v]
	if !ok {
		return false
	}
	owner := owners[v]
	block := v.Parent()
	t := v.Type()

	tmp := ir.NewGlobalTemporary(offset, t)
	owners[tmp] = owner
	seq := []ir.Stmt{tmp}

	if t.IsTensor() {
		zero := ir.NewConst(ir.Scalar(t.ElementType()))
		owners[zero] = owner
		seq = append(seq, zero)
		for i := 0; i < t.ElementCount(); i++ {
			idx := ir.NewInt32Const(int32(i * t.ElementType()))
			owners[idx] = owner
			seq = append(seq, idx)

			off := ir.NewPtrOffset(tmp, idx)
			owners[off] = owner
			seq = append(seq, off)

			store := ir.NewGlobalStore(off, zero)
			owners[store] = owner
			seq = append(seq, store)
		}
	} else {
		zeros := ir.NewConst(t)
		owners[zeros] = owner
		seq = append(seq, zeros)

		store := ir.NewGlobalStore(tmp, zeros)
		owners[store] = owner
		seq = append(seq, store)
	}

	block.ReplaceWith(v, seq)
	delete(owners, v)
	return true
}

func rewriteLocalLoad(v *ir.LocalLoadStmt, offsets LocalToGlobalOffset, owners StmtToOffloaded) (bool, error) {
	if mod, err := fixOperands(v, offsets, owners); err != nil || mod {
		return mod, err
	}
	if _, ok := ir.RootPointer(v.Src).(*ir.GlobalTemporaryStmt); ok {
		owner := owners[v]
		load := ir.NewGlobalLoad(v.Src)
		owners[load] = owner
		v.Parent().ReplaceWith(v, []ir.Stmt{load})
		if owner != nil {
			ir.ReplaceAllUsesWith(owner.Body, v, load)
		}
		return true, nil
	}
	return false, nil
}

func rewriteLocalStore(v *ir.LocalStoreStmt, offsets LocalToGlobalOffset, owners StmtToOffloaded) (bool, error) {
	if mod, err := fixOperands(v, offsets, owners); err != nil || mod {
		return mod, err
	}
	if _, ok := ir.RootPointer(v.Dest).(*ir.GlobalTemporaryStmt); ok {
		owner := owners[v]
		store := ir.NewGlobalStore(v.Dest, v.Val)
		owners[store] = owner
		v.Parent().ReplaceWith(v, []ir.Stmt{store})
		return true, nil
	}
	return false, nil
}

// fixOperands rewrites every operand of s that was defined in a different
// task, handling three cases: clone a sparse global pointer (deactivated),
// clone a constant/pointer-offset/global-temporary verbatim, or point the
// operand at the value's global-temporary slot: the slot pointer itself for
// an alloca or a pointer-typed value, a global load of the slot otherwise.
func fixOperands(s ir.Stmt, offsets LocalToGlobalOffset, owners StmtToOffloaded) (bool, error) {
	modified := false
	for i := 0; i < s.NumOperands(); i++ {
		op := s.Operand(i)
		if op == nil {
			continue
		}
		if owners[s] == owners[op] {
			continue
		}
		owner := owners[s]
		block := s.Parent()

		if gp, ok := op.(*ir.GlobalPtrStmt); ok {
			clone := gp.Clone().(*ir.GlobalPtrStmt)
			clone.Activate = false
			owners[clone] = owner
			block.InsertBefore(s, clone)
			s.SetOperand(i, clone)
			modified = true
			continue
		}

		offset, hasOffset := offsets[op]
		if !hasOffset {
			switch op.(type) {
			case *ir.ConstStmt, *ir.PtrOffsetStmt, *ir.GlobalTemporaryStmt:
			default:
				return modified, internalf("cross-task operand", "%T is not allowed as a cross-task operand", op)
			}
			clone := op.Clone()
			owners[clone] = owner
			block.InsertBefore(s, clone)
			s.SetOperand(i, clone)
			modified = true
			continue
		}

		tmp := ir.NewGlobalTemporary(offset, op.Type())
		owners[tmp] = owner
		_, isAlloca := op.(*ir.LocalAllocaStmt)
		if isAlloca || op.Type().IsPointer() {
			block.InsertBefore(s, tmp)
			s.SetOperand(i, tmp)
		} else {
			load := ir.NewGlobalLoad(tmp)
			owners[load] = owner
			block.InsertBefore(s, tmp)
			block.InsertBefore(s, load)
			s.SetOperand(i, load)
		}
		modified = true
	}
	return modified, nil
}

func patchRangeOffsets(root *ir.Block, offsets LocalToGlobalOffset, ranges *Ranges) error {
	for _, s := range root.Stmts {
		task, ok := s.(*ir.OffloadedStmt)
		if !ok || task.TaskType != ir.TaskRangeFor {
			continue
		}
		if !task.ConstBegin {
			orig, has := ranges.BeginStmts[task]
			if !has {
				return internalf("range_for", "non-constant begin without a recorded defining statement")
			}
			off, has2 := offsets[ir.RootPointer(orig)]
			if !has2 {
				return internalf("range_for", "begin operand was never allocated a global-tmps offset")
			}
			task.BeginOffset = off
		}
		if !task.ConstEnd {
			orig, has := ranges.EndStmts[task]
			if !has {
				return internalf("range_for", "non-constant end without a recorded defining statement")
			}
			off, has2 := offsets[ir.RootPointer(orig)]
			if !has2 {
				return internalf("range_for", "end operand was never allocated a global-tmps offset")
			}
			task.EndOffset = off
		}
	}
	return nil
}
