// Command taxledger runs the tax settlement ledger.
package main

import (
	"os"

	"github.com/xraph/taxledger/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
