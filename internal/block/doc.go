// Package block reads and writes the binary blocks that follow a file's
// tree and hands their bytes to arrays.
//
// # Block Layout
//
// Every block starts with a fixed header, all fields big-endian:
//
//	Field           | Size | Notes
//	----------------|------|------------------------------------------
//	magic           | 4    | "\xd3BLK"
//	header_size     | 2    | bytes after this field, at least 48
//	flags           | 4    | bit 0: streamed
//	compression     | 4    | label, zero bytes for none
//	allocated_size  | 8    | bytes reserved for data
//	used_size       | 8    | bytes of (possibly compressed) data
//	data_size       | 8    | bytes after decompression
//	checksum        | 16   | MD5 of the decompressed data, or zero
//
// A streamed block is the last block of a file. It is never compressed,
// its sizes are zero and its data runs to the end of the file.
//
// # Compression
//
// Compression labels map to codecs through [Registry]:
//
//	Label | Codec
//	------|---------------------------------------------
//	zlib  | github.com/klauspost/compress/zlib
//	zstd  | github.com/klauspost/compress/zstd
//	snpy  | github.com/golang/snappy
//
// The "level" keyword argument selects the zlib or zstd level.
//
// # Manager
//
// A [Manager] serves both directions. On read it indexes the blocks of a
// file and loads each on first use, memory-mapping uncompressed data when
// possible. On write it collects one request per array base, so several
// views of one base share a single block, plus at most one streamed block.
package block
