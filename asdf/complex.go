package asdf

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// formatComplex renders c the way the complex tag stores it: "(1+2j)",
// or "2j" for a purely imaginary value with a positive zero real part.
func formatComplex(c complex128) string {
	re, im := real(c), imag(c)
	ims := formatFloat(im)
	if re == 0 && !math.Signbit(re) {
		return ims + "j"
	}
	if !strings.HasPrefix(ims, "-") {
		ims = "+" + ims
	}
	return "(" + formatFloat(re) + ims + "j)"
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// parseComplex parses a complex scalar. Both i and j are accepted as the
// imaginary unit; the i of "inf" is left alone.
func parseComplex(s string) (complex128, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimSuffix(strings.TrimPrefix(t, "("), ")")

	var sb strings.Builder
	for i := 0; i < len(t); i++ {
		switch c := t[i]; {
		case (c == 'i' || c == 'I') && len(t)-i >= 3 && strings.EqualFold(t[i:i+3], "inf"):
			sb.WriteString("inf")
			i += 2
		case c == 'i' || c == 'I' || c == 'j' || c == 'J':
			sb.WriteByte('i')
		default:
			sb.WriteByte(c)
		}
	}
	t = sb.String()

	if t == "" {
		return 0, errors.Newf("parsing complex %q: empty value", s)
	}
	if !strings.HasSuffix(t, "i") {
		re, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parsing complex %q", s)
		}
		return complex(re, 0), nil
	}

	body := t[:len(t)-1]
	split := -1
	for i := len(body) - 1; i > 0; i-- {
		if (body[i] == '+' || body[i] == '-') && body[i-1] != 'e' && body[i-1] != 'E' {
			split = i
			break
		}
	}
	if split < 0 {
		im, err := parseComponent(body)
		if err != nil {
			return 0, errors.Wrapf(err, "parsing complex %q", s)
		}
		return complex(0, im), nil
	}
	re, err := parseComponent(body[:split])
	if err != nil {
		return 0, errors.Wrapf(err, "parsing complex %q", s)
	}
	im, err := parseComponent(body[split:])
	if err != nil {
		return 0, errors.Wrapf(err, "parsing complex %q", s)
	}
	return complex(re, im), nil
}

// parseComponent parses one part of a complex number. A bare sign is the
// imaginary unit's coefficient.
func parseComponent(s string) (float64, error) {
	switch s {
	case "", "+":
		return 1, nil
	case "-":
		return -1, nil
	}
	if strings.EqualFold(strings.TrimLeft(s, "+-"), "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
