package main

import (
	"fmt"
	"os"

	"github.com/gyeh/logload/internal/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.UsageError)
	}
}
