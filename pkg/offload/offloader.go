package offload

import (
	"github.com/minz/sparsec/pkg/ir"
	"github.com/minz/sparsec/pkg/snode"
)

// Ranges records, for every range_for task whose begin or end bound wasn't
// a compile-time constant, the statement (in the pre-offload IR) that
// produced the runtime value. The liveness pass promotes these statements
// like any other cross-task operand, and reference-fix later reads the
// assigned offset back out of them.
type Ranges struct {
	BeginStmts map[*ir.OffloadedStmt]ir.Stmt
	EndStmts   map[*ir.OffloadedStmt]ir.Stmt
}

func newRanges() *Ranges {
	return &Ranges{
		BeginStmts: map[*ir.OffloadedStmt]ir.Stmt{},
		EndStmts:   map[*ir.OffloadedStmt]ir.Stmt{},
	}
}

// runOffloader splits root's statements into a sequence of OffloadedStmt
// children, folding adjacent non-parallel statements into serial tasks and
// emitting clear-list/listgen preambles around sparse iterations.
func runOffloader(root *ir.Block, cfg *Config, snodes map[int]*snode.SNode) (*Ranges, error) {
	ranges := newRanges()

	original := root.Stmts
	root.Stmts = nil

	pending := ir.NewOffloaded(ir.TaskSerial, cfg.Arch)
	flush := func() {
		if len(pending.Body.Stmts) > 0 {
			root.Append(pending)
			pending = ir.NewOffloaded(ir.TaskSerial, cfg.Arch)
		}
	}

	for _, s := range original {
		if rf, ok := s.(*ir.RangeForStmt); ok && !rf.StrictlySerial {
			flush()
			task := emitRangeFor(rf, cfg, ranges)
			root.Append(task)
			continue
		}
		if sf, ok := s.(*ir.StructForStmt); ok {
			flush()
			if err := emitStructFor(sf, root, cfg, snodes); err != nil {
				return nil, err
			}
			continue
		}
		pending.Body.Append(s)
	}
	flush()

	return ranges, nil
}

func emitRangeFor(rf *ir.RangeForStmt, cfg *Config, ranges *Ranges) *ir.OffloadedStmt {
	task := ir.NewOffloaded(ir.TaskRangeFor, cfg.Arch)
	task.GridDim = cfg.SaturatingGridDim
	if rf.BlockDim == 0 {
		task.BlockDim = cfg.defaultBlockDim()
	} else {
		task.BlockDim = rf.BlockDim
	}

	if c, ok := rf.Begin.(*ir.ConstStmt); ok && c.IsInt32 {
		task.ConstBegin = true
		task.BeginValue = c.Int32Val
	} else {
		ranges.BeginStmts[task] = rf.Begin
	}
	if c, ok := rf.End.(*ir.ConstStmt); ok && c.IsInt32 {
		task.ConstEnd = true
		task.EndValue = c.Int32Val
	} else {
		ranges.EndStmts[task] = rf.End
	}

	task.NumCPUThreads = min(rf.NumCPUThreads, cfg.CPUMaxNumThreads)

	ir.ReplaceAllUsesWith(rf.Body, rf, task)
	task.Body.MoveAllInto(rf.Body)
	return task
}

func emitStructFor(sf *ir.StructForStmt, root *ir.Block, cfg *Config, snodes map[int]*snode.SNode) error {
	leaf, ok := snodes[sf.SNodeID]
	if !ok {
		return internalf("struct_for", "unknown snode id %d", sf.SNodeID)
	}
	path := snode.PathFromRoot(leaf)

	demotable := leaf.IsPathAllDense && cfg.DemoteDenseStructFors
	if !demotable {
		for i := 1; i < len(path); i++ {
			child := path[i]
			isFinalBitLevel := (child.Type == snode.TypeBitArray || child.Type == snode.TypeBitStruct) &&
				i == len(path)-1
			if isFinalBitLevel {
				continue
			}

			clearTask := ir.NewOffloaded(ir.TaskSerial, cfg.Arch)
			clearTask.Body.Append(&ir.ClearListStmt{SNodeID: child.ID})
			// Intentionally leave clearTask.HasSNode false so the task
			// stays fusion-neutral with other serial tasks.
			root.Append(clearTask)

			listgenTask := ir.NewOffloaded(ir.TaskListgen, cfg.Arch)
			listgenTask.SNodeID = child.ID
			listgenTask.HasSNode = true
			listgenTask.GridDim = cfg.SaturatingGridDim
			listgenTask.BlockDim = min(child.MaxElements, min(cfg.defaultBlockDim(), cfg.MaxBlockDim))
			root.Append(listgenTask)
		}
	}

	task := ir.NewOffloaded(ir.TaskStructFor, cfg.Arch)
	task.IndexOffsets = append([]int(nil), sf.IndexOffsets...)
	task.GridDim = cfg.SaturatingGridDim

	if sf.BlockDim == 0 {
		task.BlockDim = min(leaf.MaxElements, cfg.DefaultGPUBlockDim)
	} else if sf.BlockDim > leaf.MaxElements {
		cfg.warn("specified block dim %d is bigger than SNode element size %d, clipping",
			sf.BlockDim, leaf.MaxElements)
		task.BlockDim = leaf.MaxElements
	} else {
		task.BlockDim = sf.BlockDim
	}

	ir.ReplaceAllUsesWith(sf.Body, sf, task)
	task.Body.MoveAllInto(sf.Body)

	task.SNodeID = sf.SNodeID
	task.HasSNode = true
	task.NumCPUThreads = min(sf.NumCPUThreads, cfg.CPUMaxNumThreads)
	task.MemAccessOpt = sf.MemAccessOpt

	root.Append(task)
	return nil
}
