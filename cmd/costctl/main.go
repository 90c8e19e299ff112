// Command costctl is the offline companion of the linecast API: it runs the
// same pricing engine against the built-in LINE price list or a catalog file
// and prints the result as a table, JSON or YAML.
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
