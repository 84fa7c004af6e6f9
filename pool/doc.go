// Package pool provides fixed-layout object pools for memory-constrained
// programs.
//
// # Overview
//
// A Pool hands out payloads of one fixed size from a small number of large
// backing blocks. Freed payloads are kept and reused before the pool grows,
// so a long-running program that allocates and frees the same kind of object
// over and over stops touching the underlying allocator once it reaches its
// working-set size.
//
// # Modes
//
// Two independent choices are folded into a Mode:
//
//   - Growth: doubling (capacity ×2) or linear (capacity + initial count).
//   - Layout: individual (each slot gets its own block, lazily, on first use)
//     or chunked (every growth step reserves one contiguous block for the
//     whole new range).
//
// Chunked pools release their memory in exactly the groups they reserved it
// in. For linear growth from an initial count C the groups start at
// 0, C, 2C, 3C, ...; for doubling growth they start at 0, C, 2C, 4C, ...
//
// # Usage Example
//
//	p, err := pool.New(48, 16, pool.DoublingChunk)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	ref, buf, err := p.Allocate()
//	if err != nil {
//	    return err
//	}
//	copy(buf, header)
//
//	// Release by reference (O(1)) or by payload (linear scan).
//	err = p.Free(ref)
//
// # Error Reporting
//
// Every failing operation returns an error wrapping one of the package
// sentinels and, before returning, passes it to an ErrorHook. The process-wide
// hook installed with SetErrorHook is a no-op by default; WithErrorHook
// overrides it for a single pool.
//
// # Concurrency
//
// A Pool is not safe for concurrent use. Distinct pools are independent and
// may be driven from different goroutines.
package pool
