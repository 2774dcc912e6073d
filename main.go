// Command rscsh is an interactive shell for ISO 7816 smart cards.
package main

import (
	"os"

	"github.com/gregLibert/smart-card-shell/pkg/cli"
)

var version = "dev" // set by the linker

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
