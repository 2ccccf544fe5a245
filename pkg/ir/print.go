package ir

import (
	"fmt"
	"strings"
)

// Dump renders the tree rooted at b as indented text, one statement per
// line. It exists for tests and the sparsec CLI's --dump-pre/--dump-post
// output; it is not
// a wire format and nothing parses it back.
func Dump(b *Block) string {
	var sb strings.Builder
	dumpBlock(&sb, b, 0)
	return sb.String()
}

func dumpBlock(sb *strings.Builder, b *Block, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range b.Stmts {
		sb.WriteString(indent)
		sb.WriteString(describe(s))
		sb.WriteString("\n")
		if body := Body(s); body != nil {
			dumpBlock(sb, body, depth+1)
		}
	}
}

func describe(s Stmt) string {
	switch v := s.(type) {
	case *OffloadedStmt:
		extra := ""
		switch v.TaskType {
		case TaskRangeFor:
			extra = fmt.Sprintf(" grid=%d block=%d begin=%s end=%s",
				v.GridDim, v.BlockDim, rangeEndpoint(v.ConstBegin, v.BeginValue, v.BeginOffset),
				rangeEndpoint(v.ConstEnd, v.EndValue, v.EndOffset))
		case TaskStructFor:
			extra = fmt.Sprintf(" snode=%d grid=%d block=%d", v.SNodeID, v.GridDim, v.BlockDim)
		case TaskListgen:
			extra = fmt.Sprintf(" snode=%d", v.SNodeID)
		case TaskGC:
			extra = fmt.Sprintf(" snode=%d", v.GCSNodeID)
		}
		return fmt.Sprintf("#%d offloaded(%s)%s", v.id, v.TaskType, extra)
	case *RangeForStmt:
		return fmt.Sprintf("#%d range_for", v.id)
	case *StructForStmt:
		return fmt.Sprintf("#%d struct_for(snode=%d)", v.id, v.SNodeID)
	case *WhileLoopStmt:
		return fmt.Sprintf("#%d while", v.id)
	case *ContinueStmt:
		scope := "<unbound>"
		if v.Scope != nil {
			scope = fmt.Sprintf("#%d", v.Scope.ID())
		}
		return fmt.Sprintf("#%d continue -> %s", v.id, scope)
	case *LocalAllocaStmt:
		return fmt.Sprintf("#%d alloca %s", v.id, v.Name)
	case *GlobalTemporaryStmt:
		return fmt.Sprintf("#%d global_tmp[%d]", v.id, v.Offset)
	case *DeactivateStmt:
		return fmt.Sprintf("#%d deactivate(snode=%d)", v.id, v.SNodeID)
	default:
		return fmt.Sprintf("#%d %T", s.ID(), s)
	}
}

func rangeEndpoint(isConst bool, value int32, offset int) string {
	if isConst {
		return fmt.Sprintf("%d", value)
	}
	return fmt.Sprintf("tmp[%d]", offset)
}
