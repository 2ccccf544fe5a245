// Package offload implements the kernel offloading pass: it rewrites a
// single mutable IR root (see pkg/ir) from a mixed sequence of straight-line
// statements, serial control flow, and parallel loops into a linear
// sequence of offloaded tasks, and patches every cross-task data dependency
// so tasks only communicate through kernel arguments, the global sparse
// structure, and the global temporaries region.
package offload

import "github.com/minz/sparsec/pkg/ir"

// GlobalTmpBufferSize is the process-wide capacity, in bytes, of the global
// temporaries region. It mirrors taichi_global_tmp_buffer_size: a
// compile-time constant the allocator may never exceed.
const GlobalTmpBufferSize = 1 << 20

// Config carries every tunable the pass consults. It is always passed
// explicitly; nothing here is read from a package-level global.
type Config struct {
	Arch ir.Arch

	// SaturatingGridDim is the grid dimension assigned to every task that
	// doesn't compute its own (range_for, listgen, struct_for).
	SaturatingGridDim int

	// DefaultGPUBlockDim is the block dim struct_for falls back to when
	// the source loop didn't request one (block_dim == 0).
	DefaultGPUBlockDim int

	// MaxBlockDim upper-clips listgen's block dim.
	MaxBlockDim int

	// CPUMaxNumThreads caps num_cpu_threads on range_for/struct_for tasks.
	CPUMaxNumThreads int

	// DemoteDenseStructFors, when true, skips the clear/listgen preamble
	// for struct-for loops whose path is entirely dense SNodes; those
	// loops are expected to be demoted to range_for by a later pass.
	DemoteDenseStructFors bool

	// DefaultBlockDim is supplied by the backend; it picks the block dim
	// for a range_for task whose source loop didn't request one.
	DefaultBlockDim func(*Config) int

	// GlobalTmpBufferSizeOverride replaces GlobalTmpBufferSize when positive;
	// tests use this to exercise the overflow error cheaply.
	GlobalTmpBufferSizeOverride int

	// Warn receives non-fatal diagnostics (e.g. block-dim clipping). A nil
	// Warn silently discards them.
	Warn func(format string, args ...interface{})
}

func (c *Config) bufferSize() int {
	if c.GlobalTmpBufferSizeOverride > 0 {
		return c.GlobalTmpBufferSizeOverride
	}
	return GlobalTmpBufferSize
}

func (c *Config) warn(format string, args ...interface{}) {
	if c.Warn != nil {
		c.Warn(format, args...)
	}
}

func (c *Config) defaultBlockDim() int {
	if c.DefaultBlockDim != nil {
		return c.DefaultBlockDim(c)
	}
	return c.DefaultGPUBlockDim
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
