package ndarray

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
)

// ToList returns the elements as nested []any, one level per dimension.
// Masked elements are nil. A zero-dimensional array returns its single
// element.
func (a *Array) ToList() (any, error) {
	if a.buf.Closed() {
		return nil, ErrStorageClosed
	}
	idx := make([]int, len(a.shape))
	return a.toList(idx, 0), nil
}

func (a *Array) toList(idx []int, axis int) any {
	if axis == len(a.shape) {
		if a.MaskedAt(idx...) {
			return nil
		}
		off, _ := a.elementOffset(idx)
		return dtype.Get(a.dtype, a.buf.data[off:off+a.dtype.ItemSize()])
	}
	out := make([]any, a.shape[axis])
	for i := range out {
		idx[axis] = i
		out[i] = a.toList(idx, axis+1)
	}
	idx[axis] = 0
	return out
}

func (a *Array) String() string {
	list, err := a.ToList()
	if err != nil {
		return "<closed array>"
	}
	var sb strings.Builder
	formatList(&sb, list)
	return sb.String()
}

func formatList(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("--")
	case []any:
		sb.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				sb.WriteByte(' ')
			}
			formatList(sb, e)
		}
		sb.WriteByte(']')
	case string:
		fmt.Fprintf(sb, "%q", x)
	default:
		fmt.Fprint(sb, x)
	}
}
