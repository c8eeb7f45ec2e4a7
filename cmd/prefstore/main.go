// Command prefstore manages the notes app preference store.
package main

import (
	"os"

	"github.com/mesh-intelligence/prefstore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
