package offload

import (
	"sort"

	"github.com/minz/sparsec/pkg/analysis"
	"github.com/minz/sparsec/pkg/ir"
	"github.com/minz/sparsec/pkg/snode"
)

// insertGC walks root's direct children from the front, asking the external
// gather-deactivations analysis which SNodes each task may deactivate, then
// walks back from the end inserting a gc task immediately after every task
// whose deactivation set contains a GC-eligible node. The reverse pass is
// what keeps the recorded indices valid as insertions shift later tasks.
func insertGC(root *ir.Block, cfg *Config, snodes map[int]*snode.SNode) error {
	type deactivated struct {
		idx int
		ids []int
	}
	results := make([]deactivated, len(root.Stmts))
	for i, s := range root.Stmts {
		set := analysis.GatherDeactivations(s)
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ids)))
		results[i] = deactivated{idx: i, ids: ids}
	}

	for i := len(results) - 1; i >= 0; i-- {
		for _, id := range results[i].ids {
			sn, ok := snodes[id]
			if !ok {
				continue
			}
			if !snode.IsGCAble(sn.Type) {
				continue
			}
			gc := ir.NewOffloaded(ir.TaskGC, cfg.Arch)
			gc.GCSNodeID = id
			root.InsertAt(results[i].idx+1, gc)
		}
	}
	return nil
}

// bindContinueScopes is a fix-point pass that binds every continue
// statement's Scope to its innermost enclosing internal loop, or (if there
// is none) to its enclosing task.
func bindContinueScopes(root *ir.Block) error {
	for {
		modified, err := continueScopePass(root)
		if err != nil {
			return err
		}
		if !modified {
			return nil
		}
	}
}

func continueScopePass(root *ir.Block) (bool, error) {
	modified := false
	var walkErr error

	var walk func(b *ir.Block, task *ir.OffloadedStmt, loop ir.Stmt)
	walk = func(b *ir.Block, task *ir.OffloadedStmt, loop ir.Stmt) {
		for _, s := range b.Stmts {
			if modified || walkErr != nil {
				return
			}
			switch v := s.(type) {
			case *ir.OffloadedStmt:
				if task != nil || loop != nil {
					walkErr = internalf("offloaded", "encountered a task with an enclosing task or loop already open")
					return
				}
				walk(v.Body, v, nil)
			case *ir.WhileLoopStmt:
				walk(v.Body, task, v)
			case *ir.RangeForStmt:
				walk(v.Body, task, v)
			case *ir.StructForStmt:
				walkErr = internalf("struct_for", "struct_for cannot be nested inside a task; it should have been lifted by the offloader")
				return
			case *ir.ContinueStmt:
				if v.Scope != nil {
					continue
				}
				if loop != nil {
					v.Scope = loop
				} else if task != nil {
					v.Scope = task
				} else {
					walkErr = internalf("continue", "continue statement outside of any task")
					return
				}
				modified = true
				return
			}
		}
	}
	walk(root, nil, nil)
	if walkErr != nil {
		return false, walkErr
	}
	return modified, nil
}
