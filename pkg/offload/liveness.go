package offload

import "github.com/minz/sparsec/pkg/ir"

// LocalToGlobalOffset maps a promoted defining statement (the root pointer
// of a cross-task reference) to its assigned byte offset in the global
// temporaries region.
type LocalToGlobalOffset map[ir.Stmt]int

// tmpAllocator hands out offsets into the global temporaries region,
// starting at 0 and growing monotonically. Scalars are aligned to their own
// byte size; tensors are placed at the current offset unchanged.
type tmpAllocator struct {
	next int
}

func (a *tmpAllocator) allocate(t ir.DataType, cfg *Config) (int, error) {
	var offset int
	if t.IsTensor() {
		offset = a.next
		a.next += t.ByteSize()
	} else {
		size := t.ByteSize()
		if size <= 0 {
			size = 1
		}
		a.next = ((a.next + size - 1) / size) * size
		offset = a.next
		a.next += size
	}
	if a.next > cfg.bufferSize() {
		return 0, configErrorf("global temporaries region exhausted: need %d bytes, capacity is %d", a.next, cfg.bufferSize())
	}
	return offset, nil
}

// computeLiveness walks every task, finds operand references whose
// defining statement lives in a different task, and assigns each such
// value an offset in the global temporaries region.
func computeLiveness(root *ir.Block, cfg *Config, owners StmtToOffloaded, ranges *Ranges) (LocalToGlobalOffset, error) {
	alloc := &tmpAllocator{}
	offsets := LocalToGlobalOffset{}

	testAndAllocate := func(candidate ir.Stmt, current *ir.OffloadedStmt) error {
		if candidate == nil {
			return nil
		}
		if owners[candidate] == current {
			return nil
		}
		if _, isConst := candidate.(*ir.ConstStmt); isConst {
			return nil
		}
		root := ir.RootPointer(candidate)
		if _, isGlobalPtr := root.(*ir.GlobalPtrStmt); isGlobalPtr {
			return nil
		}
		if _, already := offsets[root]; already {
			return nil
		}
		if _, isAlloca := root.(*ir.LocalAllocaStmt); isAlloca && current == nil {
			return internalf("alloca", "local alloca found outside any offloaded task")
		}
		offset, err := alloc.allocate(root.Type(), cfg)
		if err != nil {
			return err
		}
		offsets[root] = offset
		return nil
	}

	var err error
	for _, s := range root.Stmts {
		task, ok := s.(*ir.OffloadedStmt)
		if !ok {
			continue
		}
		if begin, has := ranges.BeginStmts[task]; has {
			if e := testAndAllocate(begin, task); e != nil {
				err = e
				break
			}
		}
		if end, has := ranges.EndStmts[task]; has {
			if e := testAndAllocate(end, task); e != nil {
				err = e
				break
			}
		}
		if err != nil {
			break
		}
		ir.WalkAll(task.Body, func(stmt ir.Stmt) {
			if err != nil {
				return
			}
			if _, isAlloca := stmt.(*ir.LocalAllocaStmt); isAlloca {
				// Allocas themselves are only allocated a slot when some
				// other statement reads them across a task boundary; they
				// are never cross-task operands of themselves.
			}
			for i := 0; i < stmt.NumOperands(); i++ {
				if e := testAndAllocate(stmt.Operand(i), task); e != nil {
					err = e
					return
				}
			}
		})
		if err != nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return offsets, nil
}
