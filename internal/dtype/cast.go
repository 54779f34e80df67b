package dtype

// CanCastSafe reports whether every value of type from can be represented
// in type to without loss: no truncation, no loss of precision and no sign
// ambiguity. Byte order never affects the result. Records cast field by
// field, by position, and never to or from a scalar.
func CanCastSafe(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from.IsRecord() || to.IsRecord() {
		if !from.IsRecord() || !to.IsRecord() || len(from.Fields) != len(to.Fields) {
			return false
		}
		for i := range from.Fields {
			a, b := from.Fields[i], to.Fields[i]
			if !intsEqual(a.Shape, b.Shape) || !CanCastSafe(a.Type, b.Type) {
				return false
			}
		}
		return true
	}

	fk, tk := from.Kind, to.Kind
	switch {
	case fk == KindBool:
		return tk == KindBool || tk.IsNumeric()

	case fk.IsString():
		if !tk.IsString() {
			return false
		}
		// ucs4 cannot become ascii without possible loss.
		if fk == KindUCS4 && tk == KindASCII {
			return false
		}
		return to.Length >= from.Length

	case fk.IsSigned():
		size := scalarSizes[fk]
		switch {
		case tk.IsSigned():
			return scalarSizes[tk] >= size
		case tk.IsFloat():
			return floatHolds(tk, size)
		case tk.IsComplex():
			return floatHolds(componentKind(tk), size)
		}
		return false

	case fk.IsUnsigned():
		size := scalarSizes[fk]
		switch {
		case tk.IsUnsigned():
			return scalarSizes[tk] >= size
		case tk.IsSigned():
			return scalarSizes[tk] > size
		case tk.IsFloat():
			return floatHolds(tk, size)
		case tk.IsComplex():
			return floatHolds(componentKind(tk), size)
		}
		return false

	case fk.IsFloat():
		switch {
		case tk.IsFloat():
			return scalarSizes[tk] >= scalarSizes[fk]
		case tk.IsComplex():
			return scalarSizes[componentKind(tk)] >= scalarSizes[fk]
		}
		return false

	case fk.IsComplex():
		return tk.IsComplex() && scalarSizes[tk] >= scalarSizes[fk]
	}
	return false
}

// floatHolds reports whether a float kind holds integers of the given byte
// size. float32 holds 8 and 16 bit integers; 32 and 64 bit integers need
// float64.
func floatHolds(k Kind, intSize int) bool {
	if k == KindFloat32 {
		return intSize <= 2
	}
	return k == KindFloat64
}

func componentKind(k Kind) Kind {
	if k == KindComplex64 {
		return KindFloat32
	}
	return KindFloat64
}
