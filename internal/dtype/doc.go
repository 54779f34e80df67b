// Package dtype converts between the datatype descriptors found in a tree
// and native element types, and encodes single elements to and from bytes.
//
// # Descriptor Grammar
//
// A descriptor is one of three forms:
//
//	Form                          | Native type
//	------------------------------|---------------------------------------
//	"int8" ... "complex128"       | scalar of that kind (see table below)
//	["ascii", n] / ["ucs4", n]    | fixed-width string of n characters
//	[field, field, ...]           | record; each field is a mapping with
//	                              | "datatype" and optional "name",
//	                              | "byteorder" and "shape"
//
// A record entry that is not a mapping is treated as an anonymous field.
// Anonymous fields are named positionally ("f0", "f1", ...).
//
// # Scalar Names
//
//	Name        | Item size | Go value
//	------------|-----------|-----------
//	int8..64    | 1..8      | int8..int64
//	uint8..64   | 1..8      | uint8..uint64
//	float32/64  | 4/8       | float32/float64
//	complex64   | 8         | complex64
//	complex128  | 16        | complex128
//	bool8       | 1         | bool
//	ascii[n]    | n         | string
//	ucs4[n]     | 4n        | string
//
// # Key Functions
//
//   - [Decode]: descriptor to [Type]
//   - [Encode]: [Type] to descriptor plus resolved byte order
//   - [Get], [Put], [Zero]: element codec used by the array layer
//   - [CanCastSafe]: lossless conversion check used by schema validation
package dtype
