// Command querykit renders and runs filtered, paginated queries from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if querykit.IsClientError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
