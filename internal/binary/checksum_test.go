package binary

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksumKnownValue(t *testing.T) {
	sum := Checksum([]byte("abc"))
	require.Equal(t, "900150983cd24fb0d6963f7d28e17f72", hex.EncodeToString(sum[:]))
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	sum := Checksum(data)

	tests := []struct {
		name     string
		data     []byte
		expected [ChecksumSize]byte
		ok       bool
	}{
		{"match", data, sum, true},
		{"mismatch", []byte{1, 2, 3, 5}, sum, false},
		{"zero digest", []byte{9}, [ChecksumSize]byte{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.ok, VerifyChecksum(tt.data, tt.expected))
		})
	}
}
