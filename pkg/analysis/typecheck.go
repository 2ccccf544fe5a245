package analysis

import (
	"fmt"

	"github.com/minz/sparsec/pkg/ir"
)

// TypeCheck re-validates the IR's basic shape after a rewrite: every
// operand slot that is supposed to be filled actually is, and no statement
// references a sibling that has been detached from its block. It is a
// stand-in for the real (externally owned) type checker, which also
// verifies arithmetic and tensor shape compatibility; that part is out of
// scope here; the offloading pass only ever needs the rewrite to leave the
// tree well-formed enough to re-check.
func TypeCheck(root *ir.Block) error {
	var err error
	ir.WalkAll(root, func(s ir.Stmt) {
		if err != nil {
			return
		}
		for i := 0; i < s.NumOperands(); i++ {
			op := s.Operand(i)
			if op == nil {
				err = fmt.Errorf("analysis: type check: %T has a nil operand at index %d", s, i)
				return
			}
			if op.Parent() == nil {
				err = fmt.Errorf("analysis: type check: %T operand %d is a %T that is not in any block", s, i, op)
				return
			}
		}
	})
	return err
}
