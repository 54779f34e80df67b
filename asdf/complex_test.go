package asdf

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatComplex(t *testing.T) {
	tests := []struct {
		c    complex128
		want string
	}{
		{complex(1, 2), "(1+2j)"},
		{complex(1.5, -2), "(1.5-2j)"},
		{complex(0, 2), "2j"},
		{complex(0, 0), "0j"},
		{complex(math.Copysign(0, -1), 1), "(-0+1j)"},
		{complex(-3, 0), "(-3+0j)"},
		{complex(1, math.Inf(1)), "(1+infj)"},
		{complex(math.NaN(), math.Inf(-1)), "(nan-infj)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatComplex(tt.c))
	}
}

func TestParseComplex(t *testing.T) {
	tests := []struct {
		s    string
		want complex128
	}{
		{"(1+2j)", complex(1, 2)},
		{"1+2i", complex(1, 2)},
		{"1-2J", complex(1, -2)},
		{"2j", complex(0, 2)},
		{"-2.5e-3j", complex(0, -2.5e-3)},
		{"1e+3+1e-3j", complex(1000, 0.001)},
		{"3", complex(3, 0)},
		{"j", complex(0, 1)},
		{"1-j", complex(1, -1)},
		{"(inf+1j)", complex(math.Inf(1), 1)},
		{"(1-infj)", complex(1, math.Inf(-1))},
		{"INF", complex(math.Inf(1), 0)},
	}
	for _, tt := range tests {
		got, err := parseComplex(tt.s)
		require.NoError(t, err, tt.s)
		require.Equal(t, tt.want, got, tt.s)
	}

	got, err := parseComplex("(1+nanj)")
	require.NoError(t, err)
	require.Equal(t, 1.0, real(got))
	require.True(t, math.IsNaN(imag(got)))

	for _, bad := range []string{"", "()", "abc", "1+2k", "1+xj"} {
		_, err := parseComplex(bad)
		require.Error(t, err, bad)
	}
}

func TestComplexRoundTrip(t *testing.T) {
	for _, c := range []complex128{
		complex(1, 2), complex(-1e-300, 1e300), complex(0, -7), complex(0.1, 0.2), cmplx.Inf(),
	} {
		got, err := parseComplex(formatComplex(c))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}
