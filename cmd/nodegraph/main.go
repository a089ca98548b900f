// Command nodegraph inspects, converts, stores and watches node graph
// documents.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
