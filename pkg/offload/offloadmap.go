package offload

import "github.com/minz/sparsec/pkg/ir"

// StmtToOffloaded maps every statement reachable under a rewritten root —
// including each task itself — to the OffloadedStmt that owns it. It is
// rebuilt twice: once before liveness analysis, and again after promotion,
// which inserts new statements that also need an owner label.
type StmtToOffloaded map[ir.Stmt]*ir.OffloadedStmt

// buildOffloadMap walks root and labels every statement with its owning
// task. Entering an OffloadedStmt sets it as its own owner and the current
// owner for everything nested under it; leaving clears the current owner.
func buildOffloadMap(root *ir.Block) StmtToOffloaded {
	m := StmtToOffloaded{}
	var walk func(b *ir.Block, owner *ir.OffloadedStmt)
	walk = func(b *ir.Block, owner *ir.OffloadedStmt) {
		for _, s := range b.Stmts {
			if task, ok := s.(*ir.OffloadedStmt); ok {
				m[task] = task
				walk(task.Body, task)
				continue
			}
			if owner != nil {
				m[s] = owner
			}
			if body := ir.Body(s); body != nil {
				walk(body, owner)
			}
		}
	}
	walk(root, nil)
	return m
}
