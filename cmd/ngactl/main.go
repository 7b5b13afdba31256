package main

import (
	"fmt"
	"os"

	"nga_reminder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		code, show := cli.ExitStatus(err)
		if show {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}
