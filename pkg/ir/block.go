package ir

// Block owns an ordered sequence of statements. It is not itself a Stmt:
// the IR root is a bare Block, and control-flow statements embed one as
// their body.
type Block struct {
	Stmts []Stmt
	// Owner names the statement this block is the body of. The constructors
	// in this package leave it nil and nothing in the module reads it.
	Owner Stmt
}

// NewBlock returns an empty block.
func NewBlock() *Block { return &Block{} }

func (b *Block) adopt(s Stmt) { s.setParent(b) }

// Append adds s to the end of the block.
func (b *Block) Append(s Stmt) {
	b.adopt(s)
	b.Stmts = append(b.Stmts, s)
}

// indexOf returns the position of s in the block, or -1.
func (b *Block) indexOf(s Stmt) int {
	for i, t := range b.Stmts {
		if t == s {
			return i
		}
	}
	return -1
}

// InsertAt moves-inserts s at position pos, shifting later statements down.
func (b *Block) InsertAt(pos int, s Stmt) {
	b.adopt(s)
	b.Stmts = append(b.Stmts, nil)
	copy(b.Stmts[pos+1:], b.Stmts[pos:])
	b.Stmts[pos] = s
}

// InsertAfter inserts s immediately after existing in the block that
// contains existing. It is a logic error to call this with an existing
// statement not owned by b.
func (b *Block) InsertAfter(existing, s Stmt) {
	i := b.indexOf(existing)
	if i < 0 {
		panic("ir: InsertAfter: statement not found in block")
	}
	b.InsertAt(i+1, s)
}

// InsertBefore inserts s immediately before existing in the block that
// contains existing.
func (b *Block) InsertBefore(existing, s Stmt) {
	i := b.indexOf(existing)
	if i < 0 {
		panic("ir: InsertBefore: statement not found in block")
	}
	b.InsertAt(i, s)
}

// Remove deletes s from the block, leaving no dangling child behind.
func (b *Block) Remove(s Stmt) {
	i := b.indexOf(s)
	if i < 0 {
		return
	}
	b.Stmts = append(b.Stmts[:i], b.Stmts[i+1:]...)
	s.setParent(nil)
}

// ReplaceWith replaces old with the statements in seq, preserving position.
// old is left with no parent, as required of a moved-from child.
func (b *Block) ReplaceWith(old Stmt, seq []Stmt) {
	i := b.indexOf(old)
	if i < 0 {
		panic("ir: ReplaceWith: statement not found in block")
	}
	for _, s := range seq {
		b.adopt(s)
	}
	tail := append([]Stmt(nil), b.Stmts[i+1:]...)
	b.Stmts = append(b.Stmts[:i], seq...)
	b.Stmts = append(b.Stmts, tail...)
	old.setParent(nil)
}

// MoveAllInto moves every statement out of src, in order, and appends it to
// b. src is left empty; this is the ownership-transfer primitive the
// offloader uses to relocate a loop's body into the new task.
func (b *Block) MoveAllInto(src *Block) {
	for _, s := range src.Stmts {
		b.Append(s)
	}
	src.Stmts = nil
}

// ---- control flow ----

// WhileLoopStmt is an internal (non-offloaded) loop; it may only appear
// inside an OffloadedStmt's body.
type WhileLoopStmt struct {
	base
	Body *Block
}

func NewWhileLoop() *WhileLoopStmt {
	return &WhileLoopStmt{Body: NewBlock()}
}

func (s *WhileLoopStmt) Kind() Kind           { return KindWhileLoop }
func (s *WhileLoopStmt) NumOperands() int     { return 0 }
func (s *WhileLoopStmt) Operand(int) Stmt     { return nil }
func (s *WhileLoopStmt) SetOperand(int, Stmt) {}
func (s *WhileLoopStmt) Clone() Stmt {
	c := *s
	c.base = base{typ: s.typ}
	return &c
}

// RangeForStmt is a parallel range loop over [Begin, End). StrictlySerial
// marks the `strictly_serialized` variant, which the offloader treats
// identically to any other non-parallel statement (see the Offloader
// open question).
type RangeForStmt struct {
	base
	Begin          Stmt
	End            Stmt
	Body           *Block
	BlockDim       int
	NumCPUThreads  int
	StrictlySerial bool
}

func NewRangeFor(begin, end Stmt) *RangeForStmt {
	return &RangeForStmt{Begin: begin, End: end, Body: NewBlock()}
}

func (s *RangeForStmt) Kind() Kind       { return KindRangeFor }
func (s *RangeForStmt) NumOperands() int { return 2 }
func (s *RangeForStmt) Operand(i int) Stmt {
	switch i {
	case 0:
		return s.Begin
	case 1:
		return s.End
	}
	return nil
}
func (s *RangeForStmt) SetOperand(i int, v Stmt) {
	switch i {
	case 0:
		s.Begin = v
	case 1:
		s.End = v
	}
}
func (s *RangeForStmt) Clone() Stmt {
	c := *s
	c.base = base{typ: s.typ}
	return &c
}

// StructForStmt iterates the active elements of SNodeID. It must be lifted
// into a (clear_list, listgen)* + struct_for task sequence by the
// offloader and must never survive into the continue-scope binder.
type StructForStmt struct {
	base
	SNodeID       int
	Body          *Block
	BlockDim      int
	NumCPUThreads int
	IndexOffsets  []int
	MemAccessOpt  MemoryAccessOptions
}

func NewStructFor(snodeID int) *StructForStmt {
	return &StructForStmt{SNodeID: snodeID, Body: NewBlock()}
}

func (s *StructForStmt) Kind() Kind           { return KindStructFor }
func (s *StructForStmt) NumOperands() int     { return 0 }
func (s *StructForStmt) Operand(int) Stmt     { return nil }
func (s *StructForStmt) SetOperand(int, Stmt) {}
func (s *StructForStmt) Clone() Stmt {
	c := *s
	c.base = base{typ: s.typ}
	c.IndexOffsets = append([]int(nil), s.IndexOffsets...)
	return &c
}

// OffloadedStmt is a self-launchable task: the unit of output of the
// offloading pass.
type OffloadedStmt struct {
	base
	TaskType TaskType
	Arch     Arch
	Body     *Block

	GridDim       int
	BlockDim      int
	NumCPUThreads int

	// range_for
	ConstBegin  bool
	ConstEnd    bool
	BeginValue  int32
	EndValue    int32
	BeginOffset int
	EndOffset   int

	// struct_for / listgen
	SNodeID      int
	HasSNode     bool
	IndexOffsets []int
	MemAccessOpt MemoryAccessOptions

	// gc
	GCSNodeID int
}

// NewOffloaded returns a fresh task of the given type with an empty body
// and a 1x1 grid/block (kept by serial tasks, including those holding a
// ClearListStmt, and by gc tasks; range_for, struct_for and listgen
// override it).
func NewOffloaded(taskType TaskType, arch Arch) *OffloadedStmt {
	return &OffloadedStmt{
		TaskType: taskType,
		Arch:     arch,
		Body:     NewBlock(),
		GridDim:  1,
		BlockDim: 1,
	}
}

func (s *OffloadedStmt) Kind() Kind           { return KindOffloaded }
func (s *OffloadedStmt) NumOperands() int     { return 0 }
func (s *OffloadedStmt) Operand(int) Stmt     { return nil }
func (s *OffloadedStmt) SetOperand(int, Stmt) {}
func (s *OffloadedStmt) Clone() Stmt {
	c := *s
	c.base = base{typ: s.typ}
	c.IndexOffsets = append([]int(nil), s.IndexOffsets...)
	return &c
}
