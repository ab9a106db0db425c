// Command jwtctl creates and parses tokens from a YAML token configuration.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jwtctl:", err)
		os.Exit(1)
	}
}
