// Command stripmark inspects and resolves marker-stripped documents.
package main

import (
	"os"

	"github.com/roach88/stripmark/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
