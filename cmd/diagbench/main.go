// Command diagbench benchmarks classifier families on a tabular clinical
// dataset with a binary diagnosis label.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
