package offload

import (
	"github.com/minz/sparsec/pkg/analysis"
	"github.com/minz/sparsec/pkg/ir"
	"github.com/minz/sparsec/pkg/snode"
)

// Offload mutates root in place, rewriting it from a block of straight-line
// statements, serial control flow, and parallel loops into a linear
// sequence of offloaded tasks with every cross-task dependency patched to
// go through kernel arguments, the global sparse structure, or the global
// temporaries region.
//
// snodes resolves the SNode ids referenced by StructForStmt/GlobalPtrStmt/
// DeactivateStmt to the sparse-structure tree; it is owned by the caller
// and never mutated.
func Offload(root *ir.Block, cfg *Config, snodes map[int]*snode.SNode) error {
	ranges, err := runOffloader(root, cfg, snodes)
	if err != nil {
		return err
	}

	if err := analysis.TypeCheck(root); err != nil {
		return err
	}

	owners := buildOffloadMap(root)
	offsets, err := computeLiveness(root, cfg, owners, ranges)
	if err != nil {
		return err
	}

	if err := promoteDefinitions(root, offsets, owners); err != nil {
		return err
	}

	owners = buildOffloadMap(root)
	if err := fixReferences(root, offsets, owners, ranges); err != nil {
		return err
	}

	if err := insertGC(root, cfg, snodes); err != nil {
		return err
	}
	if err := bindContinueScopes(root); err != nil {
		return err
	}

	if err := analysis.TypeCheck(root); err != nil {
		return err
	}
	ir.ReId(root)
	return nil
}
