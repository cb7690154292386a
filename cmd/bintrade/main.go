// Command bintrade is a binary option trade simulator.
package main

import (
	"context"
	"fmt"
	"os"

	"binary-trader/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
