// devicesync keeps one file in sync between the local filesystem and a
// network device, verifying content by hash before and after the copy.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
