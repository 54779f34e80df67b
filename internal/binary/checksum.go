package binary

import "crypto/md5"

// ChecksumSize is the size of a block checksum in bytes.
const ChecksumSize = md5.Size

// Checksum computes the MD5 digest stored in block headers. The digest is
// always taken over the uncompressed block contents.
func Checksum(data []byte) [ChecksumSize]byte {
	return md5.Sum(data)
}

// IsZeroChecksum reports whether a header carries no checksum.
func IsZeroChecksum(sum [ChecksumSize]byte) bool {
	return sum == [ChecksumSize]byte{}
}

// VerifyChecksum reports whether data matches the expected digest. A zero
// digest means the writer did not record one and always verifies.
func VerifyChecksum(data []byte, expected [ChecksumSize]byte) bool {
	if IsZeroChecksum(expected) {
		return true
	}
	return Checksum(data) == expected
}
