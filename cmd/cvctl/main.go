// Command cvctl runs maintenance tasks against the CV database: migrations, seeding, inspection,
// rollback, system config and PDF export.
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
