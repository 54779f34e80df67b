package asdf

import (
	"maps"
	"slices"
	"strconv"
)

// WalkFunc is called for each array in the tree. path is the
// slash-separated path of the array's node, with list entries named by
// their index. Return nil to continue walking, or an error to stop.
type WalkFunc func(path string, v *NDArray) error

// Walk calls fn for every array in the tree, visiting mapping keys in
// sorted order. Arrays nested in other arrays (masks) are not visited.
//
// Example:
//
//	f.Walk(func(path string, v *asdf.NDArray) error {
//	    fmt.Println(path, v)
//	    return nil
//	})
func (f *File) Walk(fn WalkFunc) error {
	if f.closed {
		return ErrClosed
	}
	return walkNode("", f.tree, fn)
}

func walkNode(path string, node any, fn WalkFunc) error {
	switch n := node.(type) {
	case *NDArray:
		return fn(orRoot(path), n)
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(n)) {
			if err := walkNode(path+"/"+k, n[k], fn); err != nil {
				return err
			}
		}
	case []any:
		for i, c := range n {
			if err := walkNode(path+"/"+strconv.Itoa(i), c, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
