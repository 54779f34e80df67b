// Package ndarray provides strided, offset views over flat byte buffers.
//
// An [Array] interprets bytes of a shared [Buffer] through an element
// [dtype.Type], a shape, per-dimension byte strides and a byte offset into
// the buffer. Any number of arrays may share one buffer; the buffer is the
// "base" whose identity the block layer uses to write each base once.
//
// # Views
//
// Views never copy:
//
//   - [Array.Slice]: sub-range along one axis, with a step
//   - [Array.Transpose]: reversed axes
//   - [Array.BroadcastTo]: zero strides on stretched dimensions
//   - [Array.Index]: drop the leading axis
//
// [Array.Contiguous] returns a row-major copy in a fresh buffer.
//
// # Masks
//
// An array may carry a boolean mask of its own shape. Masked elements are
// reported as nil by [Array.ToList] and skipped by [Equal] and [AllClose].
//
// # Storage
//
// A buffer may belong to a [Storage] such as a memory-mapped region. Once
// the storage is closed the bytes must not be read; [Buffer.Closed] exposes
// that state so owners of cached arrays can rebuild them.
package ndarray
