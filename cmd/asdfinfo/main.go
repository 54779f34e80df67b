// asdfinfo inspects ASDF files: the arrays of the tree, the binary blocks
// behind them, and their contents.
package main

import (
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)

	if err := newInfo().Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
