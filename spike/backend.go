// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

// Backend selects which of the two kernel implementations runs the
// per-step computation.  Both conform to the same contracts and are run
// against the same tests -- results differ only in floating-point
// summation order.
type Backend int32

const (
	// LoopBackend runs each kernel as a single plain index loop,
	// the way a natively compiled kernel executes.
	LoopBackend Backend = iota

	// ChunkBackend splits each kernel across worker goroutines operating
	// on contiguous index chunks, the way an interpreted vectorized
	// kernel executes whole-array operations.
	ChunkBackend

	BackendN
)

func (bk Backend) String() string {
	switch bk {
	case LoopBackend:
		return "Loop"
	case ChunkBackend:
		return "Chunk"
	}
	return "BackendInvalid"
}
