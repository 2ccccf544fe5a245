// Package analysis collects the small set of whole-subtree analyses the
// offloading pass consumes as black boxes: gathering which sparse nodes a
// statement might deactivate, and the post-offload type-check sweep.
package analysis

import "github.com/minz/sparsec/pkg/ir"

// GatherDeactivations returns the set of SNode ids a statement (and
// everything nested under it) may deactivate. The offloading pass only
// consumes the result; it never inspects how it was computed.
func GatherDeactivations(s ir.Stmt) map[int]bool {
	result := map[int]bool{}
	var visit func(ir.Stmt)
	visit = func(st ir.Stmt) {
		if d, ok := st.(*ir.DeactivateStmt); ok {
			result[d.SNodeID] = true
		}
		if body := ir.Body(st); body != nil {
			for _, c := range body.Stmts {
				visit(c)
			}
		}
	}
	visit(s)
	return result
}
