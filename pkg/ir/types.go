// Package ir defines the tree-shaped intermediate representation consumed
// and rewritten by the offloading pass: statements, blocks, and the
// arena-like bookkeeping (stable ids, operand slots, clone/replace) that the
// rest of the compiler treats as a black box.
package ir

// StmtID is the stable identity of a statement. Ids are assigned by ReId
// and are only meaningful relative to one traversal; the pass itself never
// relies on their numeric value, only on pointer identity of the Stmt.
type StmtID int

// Arch tags the backend a kernel is being offloaded for. The pass itself is
// arch-agnostic; it only threads the tag through into OffloadedStmt so the
// backend can pick codegen strategy later.
type Arch int

const (
	ArchX64 Arch = iota
	ArchCUDA
	ArchVulkan
	ArchCPU
)

func (a Arch) String() string {
	switch a {
	case ArchX64:
		return "x64"
	case ArchCUDA:
		return "cuda"
	case ArchVulkan:
		return "vulkan"
	case ArchCPU:
		return "cpu"
	default:
		return "unknown"
	}
}

// DataType describes the result type of a statement. Width is always 1 on
// every path the offloading pass has to handle: either a scalar of a given
// byte size, or a tensor of ElemCount elements of ElemSize bytes each.
type DataType struct {
	Pointer   bool
	Tensor    bool
	ElemSize  int
	ElemCount int
}

// IsPointer reports whether values of this type are pointers into the
// global sparse structure or the global temporaries region.
func (d DataType) IsPointer() bool { return d.Pointer }

// IsTensor reports whether this is a tensor type (built by TensorOf),
// whatever its element count.
func (d DataType) IsTensor() bool { return d.Tensor }

// ElementType returns the per-element byte size, regardless of scalar vs
// tensor (for a scalar this equals ByteSize).
func (d DataType) ElementType() int { return d.ElemSize }

// ElementCount returns the number of elements; 1 for scalars.
func (d DataType) ElementCount() int {
	if d.Tensor {
		return d.ElemCount
	}
	return 1
}

// ByteSize returns the total storage footprint of a value of this type.
func (d DataType) ByteSize() int {
	if d.Tensor {
		return d.ElemSize * d.ElemCount
	}
	return d.ElemSize
}

// Scalar builds a non-pointer scalar DataType of the given byte size.
func Scalar(byteSize int) DataType {
	return DataType{ElemSize: byteSize}
}

// PointerType builds a pointer-valued scalar DataType of the given byte
// size.
func PointerType(byteSize int) DataType {
	return DataType{Pointer: true, ElemSize: byteSize}
}

// TensorOf builds a tensor DataType of elemCount elements of elemSize bytes.
func TensorOf(elemCount, elemSize int) DataType {
	return DataType{Tensor: true, ElemCount: elemCount, ElemSize: elemSize}
}

// TaskType enumerates the kinds of self-launchable units an OffloadedStmt
// can represent.
type TaskType int

const (
	TaskSerial TaskType = iota
	TaskRangeFor
	TaskStructFor
	TaskListgen
	TaskClearList
	TaskGC
)

func (t TaskType) String() string {
	switch t {
	case TaskSerial:
		return "serial"
	case TaskRangeFor:
		return "range_for"
	case TaskStructFor:
		return "struct_for"
	case TaskListgen:
		return "listgen"
	case TaskClearList:
		return "clear_list"
	case TaskGC:
		return "gc"
	default:
		return "unknown"
	}
}

// MemoryAccessOptions records per-task hints about how the struct-for loop
// accesses its target SNode; the offloading pass only moves this value
// around, it never interprets it.
type MemoryAccessOptions struct {
	ReadOnly  []int
	Cached    []int
	NoCache   []int
}
