// Command wdlrun translates a WDL workflow into a job graph and runs it
// to completion against a job engine.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
