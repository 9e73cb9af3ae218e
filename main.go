// gitcred is a universal Git credential helper. Git invokes it with one of
// the credential subcommands (get, store, erase) and speaks a line-oriented
// key/value protocol over stdin/stdout; gitcred answers with a credential
// obtained from a host provider (Azure Repos, GitHub, or generic basic auth).
package main

import (
	"os"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driving/cli"
)

// Build metadata, injected via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(cli.Execute(version, commit))
}
